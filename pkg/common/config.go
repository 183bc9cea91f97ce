package common

type PrintOptions struct {
	Format            string `yaml:"option-format,omitempty"`
	Indent            int    `yaml:"option-indent,omitempty"`
	IncludeSpans      bool   `yaml:"option-include-spans,omitempty"`
	IncludeRaw        bool   `yaml:"option-include-raw,omitempty"`
	TrimTokenOnOutput int    `yaml:"option-trim-token-on-output,omitempty"`
}

// DefaultPrintOptions matches what the command line tools use when no flags
// are given.
func DefaultPrintOptions() *PrintOptions {
	return &PrintOptions{
		Format:            "ASCIITREE",
		Indent:            2,
		IncludeSpans:      true,
		TrimTokenOnOutput: 40,
	}
}
