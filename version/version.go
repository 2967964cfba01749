// Package version holds the tool version embedded in generated rules.
package version

const Version = "0.1.0"

// Tool is the name recorded in rule metadata.
const Tool = "rtfsig"
