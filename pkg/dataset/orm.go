package dataset

import (
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/synthtext/pkg/geom"
)

// Payload formats of Record.Pixels
const (
	FormatRGB  = "rgb"  // Packed 8-bit RGB, no row padding
	FormatJPEG = "jpeg" // JPEG file
)

// A top level group of records, like an HDF5 group
type Group struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

func (Group) TableName() string {
	return "grp"
}

// Record is one rendered instance.
// Name is "<background>_<index>", and is unique within its group.
type Record struct {
	ID       int64                       `gorm:"primaryKey" json:"id"`
	Grp      int64                       `json:"grp"`
	Name     string                      `json:"name"`
	Width    int                         `json:"width"`
	Height   int                         `json:"height"`
	Channels int                         `json:"channels"`
	Format   string                      `json:"format"`
	Pixels   []byte                      `json:"-"`
	CharBB   *dbh.JSONField[[]geom.Quad] `json:"charBB"`
	WordBB   *dbh.JSONField[[]geom.Quad] `json:"wordBB"`
	Txt      *dbh.JSONField[[]string]    `json:"txt"` // UTF-8
}

func (Record) TableName() string {
	return "record"
}

// Run describes one generation run that wrote into the dataset
type Run struct {
	ID      int64       `gorm:"primaryKey" json:"id"`
	UUID    string      `gorm:"column:uuid" json:"uuid"`
	Started dbh.IntTime `json:"started"`
	Config  string      `json:"config"` // JSON
}

func (Run) TableName() string {
	return "run"
}
