package domain

// Mandatory registry columns. The persisted names match existing score files.
const (
	// ColInputPoses holds the original input path of a pose. It never changes.
	ColInputPoses = "input_poses"
	// ColPoses holds the current artifact location of a pose.
	ColPoses = "poses"
	// ColDescription holds the current unique key of a pose.
	ColDescription = "poses_description"
)

// Mandatory raw result columns produced by runners.
const (
	ColResultDescription = "description"
	ColResultLocation    = "location"
)

const (
	// DefaultIndexSep delimits index layers inside a description.
	DefaultIndexSep = "_"

	// DefaultOptionSep separates options inside an option string.
	DefaultOptionSep = "--"

	// IndexPadding is the zero padding width of generated index layers.
	IndexPadding = 4

	// ScoresDirName is the subdirectory of the work dir holding persisted tables.
	ScoresDirName = "scores"

	// SplitFastaDirName is the subdirectory of the work dir holding exploded
	// multi-record FASTA inputs.
	SplitFastaDirName = "input_fastas_split"
)

// MandatoryColumns lists the registry columns every table must carry.
func MandatoryColumns() []string {
	return []string{ColInputPoses, ColPoses, ColDescription}
}
