package world

// Config sizes the generated world.
type Config struct {
	TileWidth  int
	TileHeight int
	Towns      int
	Industries int
	Stations   int
	Vehicles   int
	Companies  int
}

// DefaultConfig returns the entity counts used when the scenario does
// not say otherwise.
func DefaultConfig() Config {
	return Config{
		TileWidth:  64,
		TileHeight: 64,
		Towns:      4,
		Industries: 5,
		Stations:   6,
		Vehicles:   6,
		Companies:  2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TileWidth <= 0 {
		c.TileWidth = def.TileWidth
	}
	if c.TileHeight <= 0 {
		c.TileHeight = def.TileHeight
	}
	if c.Towns <= 0 {
		c.Towns = def.Towns
	}
	if c.Industries <= 0 {
		c.Industries = def.Industries
	}
	if c.Stations <= 0 {
		c.Stations = def.Stations
	}
	if c.Vehicles <= 0 {
		c.Vehicles = def.Vehicles
	}
	if c.Companies <= 0 {
		c.Companies = def.Companies
	}
	return c
}
