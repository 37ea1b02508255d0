package orders

//catalog:shape
type OrderStatus interface {
	Label() string
}

type Pending struct{}

func (Pending) Label() string { return "pending" }

type Processing struct{}

func (Processing) Label() string { return "processing" }

//catalog:entry {display_name: Shipped Out}
type Shipped struct{}

func (Shipped) Label() string { return "shipped" }

//catalog:shape
type Equipment interface {
	Tool() string
}

type Drill struct{}

func (Drill) Tool() string { return "drill" }

type Item interface {
	Title() string
}

//catalog:shape {keys: [{member: Categories, multi: true}]}
type Product struct {
	Name       string
	Categories []string
	Stock      map[string]int
}

func (p Product) Title() string { return p.Name }

type TV struct {
	Product
}

type Radio struct {
	Product
}

//catalog:shape
type Plugin interface {
	PluginKind() string
}

type Option func(*Cache)

type Cache struct {
	size int
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{size: 16}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) PluginKind() string { return "cache" }

//catalog:shape {static: true}
type Walker interface {
	Walk(fn func(string) bool) bool
	Subscribe(ch chan<- string)
	Format(args ...any) string
}

type FileWalker struct{}

func (FileWalker) Walk(fn func(string) bool) bool { return fn(".") }
func (FileWalker) Subscribe(chan<- string)        {}
func (FileWalker) Format(args ...any) string      { return "" }

//catalog:shape
type Configurer interface {
	Apply(cfg struct{ Name string })
}

type Defaults struct{}

func (Defaults) Apply(struct{ Name string }) {}
