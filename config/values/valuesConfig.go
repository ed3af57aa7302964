package values

// SpecAliases lists the spec table keys recognised for the dedicated record fields.
// Keys are matched in order; the first one with a non-empty value wins.
type SpecAliases struct {
	Registry   []string `yaml:"registry"`
	Guarantee  []string `yaml:"guarantee"`
	Identifier string   `yaml:"identifier"`
}

func DefaultSpecAliases() SpecAliases {
	return SpecAliases{
		Registry: []string{
			"رجیستری",
			"registry",
			"ریجیستری",
			"ریجستری",
		},
		Guarantee: []string{
			"گارانتی",
			"guarantee",
			"warranty",
			"garanty",
			"گارانتی:",
			"گارانتی محصول",
			"گارانتی محصول:",
			"ضمانت",
			"ضمانت:",
		},
		Identifier: "شناسه کالا",
	}
}

// WithDefaults fills the lists left empty in configuration.
func (a SpecAliases) WithDefaults() SpecAliases {
	def := DefaultSpecAliases()
	if len(a.Registry) == 0 {
		a.Registry = def.Registry
	}
	if len(a.Guarantee) == 0 {
		a.Guarantee = def.Guarantee
	}
	if a.Identifier == "" {
		a.Identifier = def.Identifier
	}
	return a
}
