// Package dataset is the output store of a generation run.
// It is append-only: records are created once, and never modified.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/geom"
	"github.com/cyclopcam/synthtext/pkg/logx"
	"github.com/cyclopcam/synthtext/pkg/render"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataGroup is the group that rendered instances are written to
const DataGroup = "data"

var ErrKeyExists = errors.New("dataset key already exists")
var ErrNotFound = errors.New("not found")

type Options struct {
	// If non-zero, instance images are stored as JPEG at this quality.
	// Otherwise they are stored as raw RGB.
	JPEGQuality int
}

type Dataset struct {
	Filename string
	RunID    string // Only populated by Create

	log     logs.Log
	db      *gorm.DB
	options Options
	dataGrp int64
}

// Create a new dataset file, deleting any existing file at that path.
// runConfig is stored as JSON alongside the run id, so that a dataset can be traced back
// to the settings that produced it.
func Create(log logs.Log, filename string, options Options, runConfig any) (*Dataset, error) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(filename + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("Failed to delete old dataset %v: %w", filename+suffix, err)
		}
	}
	d, err := open(log, filename, options)
	if err != nil {
		return nil, err
	}

	cfgJSON, err := json.Marshal(runConfig)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("Failed to encode run config: %w", err)
	}
	run := Run{
		UUID:    uuid.New().String(),
		Started: dbh.MakeIntTime(time.Now()),
		Config:  string(cfgJSON),
	}
	grp := Group{Name: DataGroup}
	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&grp).Error; err != nil {
			return err
		}
		return tx.Create(&run).Error
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("Failed to initialize dataset %v: %w", filename, err)
	}
	d.dataGrp = grp.ID
	d.RunID = run.UUID
	d.log.Infof("Created %v (run %v)", filename, run.UUID)
	return d, nil
}

// Open an existing dataset, for inspection
func Open(log logs.Log, filename string) (*Dataset, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("Failed to open dataset %v: %w", filename, err)
	}
	d, err := open(log, filename, Options{})
	if err != nil {
		return nil, err
	}
	grp := Group{}
	if err := d.db.Where("name = ?", DataGroup).First(&grp).Error; err != nil {
		d.Close()
		return nil, fmt.Errorf("Dataset %v has no '%v' group: %w", filename, DataGroup, err)
	}
	d.dataGrp = grp.ID
	return d, nil
}

func open(log logs.Log, filename string, options Options) (*Dataset, error) {
	log = logx.NewPrefixLogger(log, "Dataset")
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(filename), Migrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open dataset %v: %w", filename, err)
	}
	return &Dataset{
		Filename: filename,
		log:      log,
		db:       db,
		options:  options,
	}, nil
}

func (d *Dataset) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Key returns the record key of instance i of a background image
func Key(bgName string, i int) string {
	return fmt.Sprintf("%v_%v", bgName, i)
}

// AddInstances writes every instance under the key "<bgName>_<i>".
// All records are written in a single transaction, so either all of them are added, or none.
// If any of the keys already exist, nothing is written and ErrKeyExists is returned.
// An empty list writes nothing.
func (d *Dataset) AddInstances(bgName string, instances []render.Instance) error {
	if len(instances) == 0 {
		return nil
	}
	records := make([]Record, 0, len(instances))
	keys := make([]string, 0, len(instances))
	for i := range instances {
		rec, err := d.makeRecord(Key(bgName, i), &instances[i])
		if err != nil {
			return err
		}
		records = append(records, *rec)
		keys = append(keys, rec.Name)
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Record{}).Where("grp = ? AND name IN (?)", d.dataGrp, keys).Count(&existing).Error; err != nil {
			return err
		}
		if existing != 0 {
			return fmt.Errorf("%w: %v has %v existing records", ErrKeyExists, bgName, existing)
		}
		return tx.Create(&records).Error
	})
}

func (d *Dataset) makeRecord(key string, inst *render.Instance) (*Record, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", key, err)
	}
	img := inst.Image
	rec := &Record{
		Grp:      d.dataGrp,
		Name:     key,
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.NChan(),
		CharBB:   &dbh.JSONField[[]geom.Quad]{Data: inst.CharBB},
		WordBB:   &dbh.JSONField[[]geom.Quad]{Data: inst.WordBB},
		Txt:      &dbh.JSONField[[]string]{Data: inst.Text},
	}
	if d.options.JPEGQuality > 0 {
		jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling444, d.options.JPEGQuality, 0))
		if err != nil {
			return nil, fmt.Errorf("Failed to compress %v: %w", key, err)
		}
		rec.Format = FormatJPEG
		rec.Pixels = jpg
	} else {
		rec.Format = FormatRGB
		rec.Pixels = packPixels(img)
	}
	return rec, nil
}

// Strip any row padding
func packPixels(img *cimg.Image) []byte {
	rowBytes := img.Width * img.NChan()
	packed := make([]byte, rowBytes*img.Height)
	for y := 0; y < img.Height; y++ {
		copy(packed[y*rowBytes:(y+1)*rowBytes], img.Pixels[y*img.Stride:])
	}
	return packed
}

// Keys returns the names of all records in the group, in insertion order
func (d *Dataset) Keys(group string) ([]string, error) {
	grp, err := d.groupID(group)
	if err != nil {
		return nil, err
	}
	keys := []string{}
	if err := d.db.Model(&Record{}).Where("grp = ?", grp).Order("id").Pluck("name", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Get returns the instance stored under key
func (d *Dataset) Get(group, key string) (*render.Instance, error) {
	grp, err := d.groupID(group)
	if err != nil {
		return nil, err
	}
	rec := Record{}
	if err := d.db.Where("grp = ? AND name = ?", grp, key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v/%v", ErrNotFound, group, key)
		}
		return nil, err
	}
	img, err := decodePixels(&rec)
	if err != nil {
		return nil, err
	}
	inst := &render.Instance{Image: img}
	if rec.CharBB != nil {
		inst.CharBB = rec.CharBB.Data
	}
	if rec.WordBB != nil {
		inst.WordBB = rec.WordBB.Data
	}
	if rec.Txt != nil {
		inst.Text = rec.Txt.Data
	}
	return inst, nil
}

func decodePixels(rec *Record) (*cimg.Image, error) {
	switch rec.Format {
	case FormatJPEG:
		img, err := cimg.Decompress(rec.Pixels)
		if err != nil {
			return nil, fmt.Errorf("Failed to decompress %v: %w", rec.Name, err)
		}
		return img, nil
	case FormatRGB:
		if rec.Channels != 3 || len(rec.Pixels) != rec.Width*rec.Height*3 {
			return nil, fmt.Errorf("Record %v has %v bytes, expected %vx%vx%v", rec.Name, len(rec.Pixels), rec.Width, rec.Height, rec.Channels)
		}
		img := cimg.NewImage(rec.Width, rec.Height, cimg.PixelFormatRGB)
		for y := 0; y < rec.Height; y++ {
			copy(img.Pixels[y*img.Stride:], rec.Pixels[y*rec.Width*3:(y+1)*rec.Width*3])
		}
		return img, nil
	}
	return nil, fmt.Errorf("Record %v has unknown format '%v'", rec.Name, rec.Format)
}

// Runs returns the generation runs that wrote into this dataset
func (d *Dataset) Runs() ([]Run, error) {
	runs := []Run{}
	if err := d.db.Order("id").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (d *Dataset) groupID(group string) (int64, error) {
	if group == DataGroup && d.dataGrp != 0 {
		return d.dataGrp, nil
	}
	grp := Group{}
	if err := d.db.Where("name = ?", group).First(&grp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: group %v", ErrNotFound, group)
		}
		return 0, err
	}
	return grp.ID, nil
}
