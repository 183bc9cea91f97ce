package manifest

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one invocation of the batch converter.
type Run struct {
	ID           uint `gorm:"primaryKey"`
	Catalog      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Units        int
	Failures     int
	PassThroughs int
	Results      []Unit `gorm:"foreignKey:RunID"`
}

// Unit is the outcome of converting one file in a run. Output holds the
// converted text, LZ4 compressed when that makes it smaller.
type Unit struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        uint   `gorm:"index"`
	Path         string `gorm:"index:idx_unit_path_catalog"`
	Catalog      string `gorm:"index:idx_unit_path_catalog"`
	SourceHash   string
	Status       string
	Error        string
	PassThroughs int
	DurationMs   int64
	OutputPath   string
	Output       []byte
	OutputSize   int
	Compressed   bool
	Diagnostics  []Diagnostic `gorm:"foreignKey:UnitID"`
}

// Diagnostic is a non-fatal finding of a unit's conversion.
type Diagnostic struct {
	ID       uint `gorm:"primaryKey"`
	UnitID   uint `gorm:"index"`
	Kind     string
	NodeKind string
	Line     int
	Column   int
	Excerpt  string
	Message  string
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202610010001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Run{}, &Unit{}, &Diagnostic{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&Diagnostic{}, &Unit{}, &Run{})
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	return m.Migrate()
}

// CheckMigration reports whether every migration has been applied. A fresh
// database without the migrations table is simply out of date.
func CheckMigration(db *gorm.DB) (bool, error) {
	var lastMigration string
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Table(gormigrate.DefaultOptions.TableName).
		Select("id").
		Order("id DESC").
		Limit(1).
		Scan(&lastMigration).Error
	if err != nil {
		return false, nil
	}

	all := migrations()
	return lastMigration == all[len(all)-1].ID, nil
}
