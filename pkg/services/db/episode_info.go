package dbservice

import (
	"errors"

	"github.com/listenup/listenup-server/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) GetEpisodeByEpisodeId(episodeId string) (*dbmodels.Episode, error) {
	info := new(dbmodels.Episode)
	cond := &dbmodels.Episode{
		EpisodeId: episodeId,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) GetEpisodeByUrl(url string) (*dbmodels.Episode, error) {
	info := new(dbmodels.Episode)

	result := s.db.Where("url = ?", url).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

// GetEpisodes returns episodes ordered by table id. If status isn't empty,
// only episodes with that status are returned.
func (s *DatabaseService) GetEpisodes(offset, limit uint64, orderBy, status string) ([]dbmodels.Episode, int64, error) {
	var episodes []dbmodels.Episode
	var total int64

	d := s.db.Model(&dbmodels.Episode{})
	if status != "" {
		d = d.Where("status = ?", status)
	}
	if err := d.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit == 0 {
		limit = 20
	}
	if orderBy == "" {
		orderBy = "DESC"
	}

	result := d.Offset(int(offset)).Limit(int(limit)).Order("id " + orderBy).Find(&episodes)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return episodes, total, nil
}

// GetEpisodesOlderThan returns episodes whose records were created before the
// given unix timestamp. Used by the janitor for retention cleanup.
func (s *DatabaseService) GetEpisodesOlderThan(creationTime int64) ([]dbmodels.Episode, error) {
	var episodes []dbmodels.Episode

	result := s.db.Where("creation_time < ?", creationTime).Find(&episodes)
	if result.Error != nil {
		return nil, result.Error
	}

	return episodes, nil
}
