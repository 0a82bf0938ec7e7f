package sqlite

import (
	"strings"
)

type Config struct {
	file       string
	conns      int
	retainRows int
	durable    bool
}

type ConfigFunc = func(c *Config)

// File sets the database file. ":memory:" keeps the journal in memory.
func (c *Config) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	c.file = file
}

// Conns sets the max number of open connections to a database file.
func (c *Config) Conns(conns int) {
	if conns < 1 {
		panic("conns can't be < 1")
	}
	c.conns = conns
}

// Retain sets the max number of frames kept per stream. Older frames are deleted on append. Zero
// means unlimited.
func (c *Config) Retain(frames int) {
	if frames < 0 {
		panic("retain can't be < 0")
	}
	c.retainRows = frames
}

// Durable sets whether every commit is synced to disk before it returns. By default a commit may
// be lost on power failure, but never corrupts the journal. Has no effect on in-memory journals.
func (c *Config) Durable(durable bool) {
	c.durable = durable
}
