package protflow

// Version is the release of the protflow module.
const Version = "0.4.0"
