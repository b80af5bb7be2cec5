package dbmodels

import (
	"time"

	"github.com/listenup/listenup-server/pkg/config"
)

const (
	EpisodeStatusProcessing = "processing"
	EpisodeStatusReady      = "ready"
	EpisodeStatusFailed     = "failed"
)

type Episode struct {
	ID           uint64    `gorm:"column:id;type:int(11);primarykey;autoIncrement"`
	EpisodeId    string    `gorm:"column:episode_id;type:varchar(32);not null;uniqueIndex:idx_episode_id"`
	Url          string    `gorm:"column:url;type:varchar(2048);not null"`
	Title        string    `gorm:"column:title;type:varchar(512);not null;default:''"`
	AudioPath    string    `gorm:"column:audio_path;type:varchar(255);not null;default:''"`
	SegmentCount int64     `gorm:"column:segment_count;type:int(10);not null;default:0"`
	DurationSec  float64   `gorm:"column:duration_sec;type:double;not null;default:0"`
	Status       string    `gorm:"column:status;type:varchar(16);not null;default:'processing'"`
	CreationTime int64     `gorm:"column:creation_time;type:int(10);not null;autoCreateTime"`
	Created      time.Time `gorm:"column:created;type:datetime;not null;default:current_timestamp()"`
	Modified     time.Time `gorm:"column:modified;type:datetime;not null;default:'0000-00-00 00:00:00';autoUpdateTime"`
}

func (t *Episode) TableName() string {
	return config.FormatDBTable("episodes")
}
