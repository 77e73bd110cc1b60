// Package sqlite persists the knowledge base in a SQLite file through gorm.
package sqlite

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/model"
)

// Repository implements kb.Repository
type Repository struct {
	db *gorm.DB
}

var _ kb.Repository = (*Repository)(nil)

// Open opens the database at path using the pure Go driver
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Close releases the underlying connection pool
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type valueActivationRow struct {
	ClassID    uint
	PropertyID uint
	Label      string
	State      int
}

// Load reads the whole knowledge base in insertion order
func (r *Repository) Load(ctx context.Context) (*kb.Dump, error) {
	db := r.db.WithContext(ctx)

	props := make([]PropertyModel, 0)
	if err := db.Order("id ASC").Find(&props).Error; err != nil {
		return nil, errors.Wrap(err, "load properties")
	}
	values := make([]PropertyValueModel, 0)
	if err := db.Order("id ASC").Find(&values).Error; err != nil {
		return nil, errors.Wrap(err, "load property values")
	}
	classes := make([]ClassModel, 0)
	if err := db.Order("id ASC").Find(&classes).Error; err != nil {
		return nil, errors.Wrap(err, "load classes")
	}
	pairs := make([]ClassPropertyModel, 0)
	if err := db.Find(&pairs).Error; err != nil {
		return nil, errors.Wrap(err, "load class properties")
	}
	valueRows := make([]valueActivationRow, 0)
	err := db.Table("class_property_values AS cv").
		Select("cv.class_id, pv.property_id, pv.label, cv.state").
		Joins("JOIN property_values pv ON pv.id = cv.value_id").
		Order("pv.id ASC").
		Scan(&valueRows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load value activations")
	}

	dump := &kb.Dump{}
	propIndex := make(map[uint]int, len(props))
	for i, p := range props {
		propIndex[p.ID] = i
		dump.Properties = append(dump.Properties, model.Property{Name: p.Name, Kind: model.PropertyKind(p.Kind)})
	}
	for _, v := range values {
		i, ok := propIndex[v.PropertyID]
		if !ok {
			return nil, errors.Newf("value %q references missing property %d", v.Label, v.PropertyID)
		}
		dump.Properties[i].Values = append(dump.Properties[i].Values, v.Label)
	}

	type key struct{ class, prop uint }
	entries := make(map[key]*kb.PropDump)
	entryFor := func(classID, propID uint) *kb.PropDump {
		k := key{classID, propID}
		if e, ok := entries[k]; ok {
			return e
		}
		e := &kb.PropDump{Name: props[propIndex[propID]].Name}
		entries[k] = e
		return e
	}

	for _, cp := range pairs {
		if _, ok := propIndex[cp.PropertyID]; !ok {
			continue
		}
		e := entryFor(cp.ClassID, cp.PropertyID)
		e.Property = model.State(cp.State)
		if cp.RangeMin != nil && cp.RangeMax != nil {
			e.Range = &model.Range{Min: *cp.RangeMin, Max: *cp.RangeMax}
		}
	}
	for _, vr := range valueRows {
		if _, ok := propIndex[vr.PropertyID]; !ok {
			continue
		}
		e := entryFor(vr.ClassID, vr.PropertyID)
		e.Values = append(e.Values, kb.ValueDump{Label: vr.Label, State: model.State(vr.State)})
	}

	for _, c := range classes {
		cd := kb.ClassDump{Name: c.Name}
		for _, p := range props {
			if e, ok := entries[key{c.ID, p.ID}]; ok {
				cd.Props = append(cd.Props, *e)
			}
		}
		dump.Classes = append(dump.Classes, cd)
	}

	return dump, nil
}

func (r *Repository) CreateClass(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Create(&ClassModel{Name: name}).Error
}

func (r *Repository) DeleteClass(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classID, err := classIDByName(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", classID).Delete(&ClassPropertyValueModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", classID).Delete(&ClassPropertyModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ClassModel{}, classID).Error
	})
}

func (r *Repository) CreateProperty(ctx context.Context, name string, kind model.PropertyKind) error {
	return r.db.WithContext(ctx).Create(&PropertyModel{Name: name, Kind: string(kind)}).Error
}

func (r *Repository) DeleteProperty(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		propID, err := propertyIDByName(tx, name)
		if err != nil {
			return err
		}

		var valueIDs []uint
		if err := tx.Model(&PropertyValueModel{}).Where("property_id = ?", propID).Pluck("id", &valueIDs).Error; err != nil {
			return err
		}
		if len(valueIDs) > 0 {
			if err := tx.Where("value_id IN ?", valueIDs).Delete(&ClassPropertyValueModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("property_id = ?", propID).Delete(&PropertyValueModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", propID).Delete(&ClassPropertyModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&PropertyModel{}, propID).Error
	})
}

func (r *Repository) CreateValue(ctx context.Context, prop, label string) error {
	db := r.db.WithContext(ctx)
	propID, err := propertyIDByName(db, prop)
	if err != nil {
		return err
	}
	return db.Create(&PropertyValueModel{PropertyID: propID, Label: label}).Error
}

func (r *Repository) DeleteValue(ctx context.Context, prop, label string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		propID, err := propertyIDByName(tx, prop)
		if err != nil {
			return err
		}
		vid, err := valueID(tx, propID, label)
		if err != nil {
			return err
		}
		if err := tx.Where("value_id = ?", vid).Delete(&ClassPropertyValueModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&PropertyValueModel{}, vid).Error
	})
}

func (r *Repository) SetPropertyState(ctx context.Context, class, prop string, state model.State) error {
	db := r.db.WithContext(ctx)
	classID, propID, err := resolvePair(db, class, prop)
	if err != nil {
		return err
	}
	row := ClassPropertyModel{ClassID: classID, PropertyID: propID, State: int(state)}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
}

func (r *Repository) SetValueState(ctx context.Context, class, prop, label string, state model.State) error {
	db := r.db.WithContext(ctx)
	classID, propID, err := resolvePair(db, class, prop)
	if err != nil {
		return err
	}
	vid, err := valueID(db, propID, label)
	if err != nil {
		return err
	}
	row := ClassPropertyValueModel{ClassID: classID, ValueID: vid, State: int(state)}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "value_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
}

func (r *Repository) SetRange(ctx context.Context, class, prop string, rng model.Range) error {
	db := r.db.WithContext(ctx)
	classID, propID, err := resolvePair(db, class, prop)
	if err != nil {
		return err
	}
	min, max := rng.Min, rng.Max
	row := ClassPropertyModel{ClassID: classID, PropertyID: propID, RangeMin: &min, RangeMax: &max}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"range_min", "range_max", "updated_at"}),
	}).Create(&row).Error
}

func classIDByName(db *gorm.DB, name string) (uint, error) {
	var m ClassModel
	if err := db.Where("name = ?", name).Take(&m).Error; err != nil {
		return 0, errors.Wrapf(err, "class %q", name)
	}
	return m.ID, nil
}

func propertyIDByName(db *gorm.DB, name string) (uint, error) {
	var m PropertyModel
	if err := db.Where("name = ?", name).Take(&m).Error; err != nil {
		return 0, errors.Wrapf(err, "property %q", name)
	}
	return m.ID, nil
}

func valueID(db *gorm.DB, propID uint, label string) (uint, error) {
	var m PropertyValueModel
	if err := db.Where("property_id = ? AND label = ?", propID, label).Take(&m).Error; err != nil {
		return 0, errors.Wrapf(err, "value %q", label)
	}
	return m.ID, nil
}

func resolvePair(db *gorm.DB, class, prop string) (uint, uint, error) {
	classID, err := classIDByName(db, class)
	if err != nil {
		return 0, 0, err
	}
	propID, err := propertyIDByName(db, prop)
	if err != nil {
		return 0, 0, err
	}
	return classID, propID, nil
}
