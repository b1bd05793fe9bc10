package bgdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// OpenMode controls whether a store must already exist
type OpenMode int

const (
	OpenExisting OpenMode = iota // Fail if the store does not exist (inputs to a generation run)
	OpenOrCreate                 // Create the store if necessary (import tools)
)

// Both stores are SQLite files keyed by background image name.

type depthRecord struct {
	Name     string `gorm:"primaryKey"`
	Width    int
	Height   int
	Channels int
	Data     []byte // little endian float32, HWC
}

func (depthRecord) TableName() string {
	return "depth"
}

type segRecord struct {
	Name   string `gorm:"primaryKey"`
	Width  int
	Height int
	Mask   []byte // big endian uint16, row-major, no padding
	Area   *dbh.JSONField[[]int64]
	Label  *dbh.JSONField[[]int32]
}

func (segRecord) TableName() string {
	return "seg"
}

func depthMigrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE depth(
			name TEXT PRIMARY KEY,
			width INT NOT NULL,
			height INT NOT NULL,
			channels INT NOT NULL,
			data BLOB NOT NULL
		);
	`))

	return migs
}

func segMigrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE seg(
			name TEXT PRIMARY KEY,
			width INT NOT NULL,
			height INT NOT NULL,
			mask BLOB NOT NULL,
			area TEXT NOT NULL,
			label TEXT NOT NULL
		);
	`))

	return migs
}

func openStore(log logs.Log, filename string, mode OpenMode, migs []migration.Migrator) (*gorm.DB, error) {
	if mode == OpenExisting {
		if _, err := os.Stat(filename); err != nil {
			return nil, fmt.Errorf("Failed to open store %v: %w", filename, err)
		}
	}
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(filename), migs, 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open store %v: %w", filename, err)
	}
	return db, nil
}

func closeStore(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func storeNames(db *gorm.DB, table string) ([]string, error) {
	names := []string{}
	if err := db.Table(table).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// DepthStore holds the depth maps of all background images
type DepthStore struct {
	Filename string
	db       *gorm.DB
}

func OpenDepthStore(log logs.Log, filename string, mode OpenMode) (*DepthStore, error) {
	db, err := openStore(log, filename, mode, depthMigrations(log))
	if err != nil {
		return nil, err
	}
	return &DepthStore{Filename: filename, db: db}, nil
}

func (s *DepthStore) Close() error {
	return closeStore(s.db)
}

func (s *DepthStore) Names() ([]string, error) {
	return storeNames(s.db, "depth")
}

func (s *DepthStore) Get(name string) (*DepthMap, error) {
	rec := depthRecord{}
	if err := s.db.Where("name = ?", name).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("depth for %v: %w", name, ErrNotFound)
		}
		return nil, err
	}
	if len(rec.Data) != rec.Width*rec.Height*rec.Channels*4 {
		return nil, fmt.Errorf("%w: depth for %v has %v bytes, expected %vx%vx%vx4", ErrBadDimensions, name, len(rec.Data), rec.Width, rec.Height, rec.Channels)
	}
	d := NewDepthMap(rec.Width, rec.Height, rec.Channels)
	for i := range d.Data {
		d.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(rec.Data[i*4:]))
	}
	return d, nil
}

// Put inserts or replaces the depth map for 'name'
func (s *DepthStore) Put(name string, d *DepthMap) error {
	if err := d.Validate(); err != nil {
		return err
	}
	rec := depthRecord{
		Name:     name,
		Width:    d.Width,
		Height:   d.Height,
		Channels: d.Channels,
		Data:     make([]byte, len(d.Data)*4),
	}
	for i, v := range d.Data {
		binary.LittleEndian.PutUint32(rec.Data[i*4:], math.Float32bits(v))
	}
	return s.db.Save(&rec).Error
}

// SegStore holds the segmentation masks, and their per-region area and label attributes
type SegStore struct {
	Filename string
	db       *gorm.DB
}

func OpenSegStore(log logs.Log, filename string, mode OpenMode) (*SegStore, error) {
	db, err := openStore(log, filename, mode, segMigrations(log))
	if err != nil {
		return nil, err
	}
	return &SegStore{Filename: filename, db: db}, nil
}

func (s *SegStore) Close() error {
	return closeStore(s.db)
}

func (s *SegStore) Names() ([]string, error) {
	return storeNames(s.db, "seg")
}

func (s *SegStore) Get(name string) (*SegMap, error) {
	rec := segRecord{}
	if err := s.db.Where("name = ?", name).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("segmentation for %v: %w", name, ErrNotFound)
		}
		return nil, err
	}
	if len(rec.Mask) != rec.Width*rec.Height*2 {
		return nil, fmt.Errorf("%w: segmentation for %v has %v bytes, expected %vx%vx2", ErrBadDimensions, name, len(rec.Mask), rec.Width, rec.Height)
	}
	seg := &SegMap{
		Mask: &image.Gray16{
			Pix:    rec.Mask,
			Stride: rec.Width * 2,
			Rect:   image.Rect(0, 0, rec.Width, rec.Height),
		},
	}
	if rec.Area != nil {
		seg.Area = rec.Area.Data
	}
	if rec.Label != nil {
		seg.Label = rec.Label.Data
	}
	return seg, nil
}

// Put inserts or replaces the segmentation for 'name'
func (s *SegStore) Put(name string, seg *SegMap) error {
	if len(seg.Area) != len(seg.Label) {
		return fmt.Errorf("segmentation for %v has %v areas but %v labels", name, len(seg.Area), len(seg.Label))
	}
	w, h := seg.Width(), seg.Height()
	mask := make([]byte, w*h*2)
	for y := 0; y < h; y++ {
		off := seg.Mask.PixOffset(seg.Mask.Rect.Min.X, seg.Mask.Rect.Min.Y+y)
		copy(mask[y*w*2:(y+1)*w*2], seg.Mask.Pix[off:])
	}
	rec := segRecord{
		Name:   name,
		Width:  w,
		Height: h,
		Mask:   mask,
		Area:   &dbh.JSONField[[]int64]{Data: seg.Area},
		Label:  &dbh.JSONField[[]int32]{Data: seg.Label},
	}
	return s.db.Save(&rec).Error
}
