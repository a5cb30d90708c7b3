package database

import (
	"gorm.io/gorm"
)

// Granule statuses.
const (
	GranuleRunning   = "running"
	GranuleCompleted = "completed"
	GranuleFailed    = "failed"
)

// Collection is a row of the collections table.
type Collection struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;size:255;not null;uniqueIndex:idx_collections_name_version"`
	Version   string `gorm:"column:version;size:64;not null;uniqueIndex:idx_collections_name_version"`
	CreatedAt int64  `gorm:"column:createdAt;autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"column:updatedAt;autoUpdateTime:milli"`
}

func (Collection) TableName() string { return "collections" }

// Granule is a row of the granules table. CollectionID references
// collections.id.
type Granule struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	GranuleID    string `gorm:"column:granuleId;size:255;not null;uniqueIndex"`
	Status       string `gorm:"column:status;size:16;not null"`
	Published    bool   `gorm:"column:published;default:false"`
	CmrLink      string `gorm:"column:cmrLink;size:1024"`
	CollectionID uint64 `gorm:"column:collection_id;not null;index"`
	CreatedAt    int64  `gorm:"column:createdAt;autoCreateTime:milli"`
	UpdatedAt    int64  `gorm:"column:updatedAt;autoUpdateTime:milli"`
}

func (Granule) TableName() string { return "granules" }

// File is an object registered in the files table. GranuleID references
// granules.id.
type File struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Bucket    string `gorm:"column:bucket;size:255;not null;uniqueIndex:idx_files_location"`
	Key       string `gorm:"column:filepath;size:767;not null;uniqueIndex:idx_files_location"`
	FileName  string `gorm:"column:filename;size:255"`
	FileSize  int64  `gorm:"column:fileSize"`
	GranuleID uint64 `gorm:"column:granule_id;not null;index"`
	CreatedAt int64  `gorm:"column:createdAt;autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"column:updatedAt;autoUpdateTime:milli"`
}

func (File) TableName() string { return "files" }

// Migrate creates or updates the inventory tables. Used for sqlite
// deployments and tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Collection{}, &Granule{}, &File{})
}
