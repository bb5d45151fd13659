package types

// RepoConfig holds the settings read from the repository config file.
type RepoConfig struct {
	ObjectCache int // number of known-present objects remembered per run
}
