package load

// CatalogConfig declares a named catalog over a shape declaration. A shape
// may carry several catalogs; entries then select one by name.
//
// Zero values mean "use the default" for every field; the defaults are
// resolved by the metadata extractor, not here.
type CatalogConfig struct {
	// Name of the catalog. Defaults to the shape name.
	Name string `yaml:"name,omitempty" hcl:"name,optional" msgpack:"name,omitempty"`
	// Artifact is the generated registry identifier. Defaults to the
	// plural of Name.
	Artifact string `yaml:"artifact,omitempty" hcl:"artifact,optional" msgpack:"artifact,omitempty"`
	// Comparison is the name comparison mode: "ignore-case" (default)
	// or "ordinal".
	Comparison string `yaml:"comparison,omitempty" hcl:"comparison,optional" msgpack:"comparison,omitempty"`
	// Keys lists key members by name, in addition to members that carry
	// their own KeyConfig.
	Keys []*KeyConfig `yaml:"keys,omitempty" hcl:"key,block" msgpack:"keys,omitempty"`
	// Factories toggles factory generation. Defaults to true.
	Factories *bool `yaml:"factories,omitempty" hcl:"factories,optional" msgpack:"factories,omitempty"`
	// Static emits package-level functions instead of registry methods.
	Static bool `yaml:"static,omitempty" hcl:"static,optional" msgpack:"static,omitempty"`
	// Generic allows parametrized shapes and emits a generic accessor.
	Generic bool `yaml:"generic,omitempty" hcl:"generic,optional" msgpack:"generic,omitempty"`
	// CrossModule includes entries declared in referenced modules.
	CrossModule bool `yaml:"cross_module,omitempty" hcl:"cross_module,optional" msgpack:"cross_module,omitempty"`
	// ResultType overrides the type returned by generated accessors,
	// spelled "import/path.Name".
	ResultType string `yaml:"result_type,omitempty" hcl:"result_type,optional" msgpack:"result_type,omitempty"`
	// DefaultResultType is the result type of a parametrized shape when no
	// ResultType is given.
	DefaultResultType string `yaml:"default_result_type,omitempty" hcl:"default_result_type,optional" msgpack:"default_result_type,omitempty"`
	// IDMember names the integer identity member. Defaults to "ID".
	IDMember string `yaml:"id_member,omitempty" hcl:"id_member,optional" msgpack:"id_member,omitempty"`
	Pos      Pos    `yaml:"-" msgpack:"-"`
}

// FactoriesEnabled reports whether factories are generated.
func (c *CatalogConfig) FactoriesEnabled() bool {
	return c.Factories == nil || *c.Factories
}

// EntryConfig configures an entry declaration.
type EntryConfig struct {
	// DisplayName overrides the declaration name used for name lookups.
	DisplayName string `yaml:"display_name,omitempty" hcl:"display_name,optional" msgpack:"display_name,omitempty"`
	// Order is the ordering hint. Entries are sorted by Order, then by
	// discovery order.
	Order int `yaml:"order,omitempty" hcl:"order,optional" msgpack:"order,omitempty"`
	// Catalogs targets the entry at the named catalogs explicitly.
	Catalogs []string `yaml:"catalogs,omitempty" hcl:"catalogs,optional" msgpack:"catalogs,omitempty"`
	// ResultType overrides the factory result type of this entry.
	ResultType string `yaml:"result_type,omitempty" hcl:"result_type,optional" msgpack:"result_type,omitempty"`
}

// Targets reports whether the entry explicitly targets any catalog.
func (c *EntryConfig) Targets() bool {
	return c != nil && len(c.Catalogs) > 0
}

// KeyConfig declares a lookup key over a shape member.
type KeyConfig struct {
	// Member is the property name. It is implied when the config is
	// attached to a member.
	Member string `yaml:"member,omitempty" hcl:"member,label" msgpack:"member,omitempty"`
	// Accessor overrides the generated accessor name.
	Accessor string `yaml:"accessor,omitempty" hcl:"accessor,optional" msgpack:"accessor,omitempty"`
	// Multi makes the key a multi-result lookup.
	Multi bool `yaml:"multi,omitempty" hcl:"multi,optional" msgpack:"multi,omitempty"`
	// ResultType overrides the element type returned by the accessor.
	ResultType string `yaml:"result_type,omitempty" hcl:"result_type,optional" msgpack:"result_type,omitempty"`
}
