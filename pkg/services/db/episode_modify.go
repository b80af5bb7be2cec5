package dbservice

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/listenup/listenup-server/pkg/dbmodels"
)

// InsertOrUpdateEpisode will insert if episode_id does not duplicate
// otherwise it will update if table ID was sent
func (s *DatabaseService) InsertOrUpdateEpisode(info *dbmodels.Episode) (int64, error) {
	result := s.db.Save(info)
	if result.Error != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(result.Error, &mysqlErr) && mysqlErr.Number == 1062 { // 1062 is the error number for duplicate entry
			// another run already recorded this episode, update that row instead
			existing, err := s.GetEpisodeByEpisodeId(info.EpisodeId)
			if err != nil || existing == nil {
				return 0, result.Error
			}
			info.ID = existing.ID
			result = s.db.Save(info)
			if result.Error != nil {
				return 0, result.Error
			}
			return result.RowsAffected, nil
		}
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *DatabaseService) UpdateEpisodeStatus(episodeId, status string) (int64, error) {
	cond := &dbmodels.Episode{
		EpisodeId: episodeId,
	}

	update := map[string]interface{}{
		"status": status,
	}

	result := s.db.Model(&dbmodels.Episode{}).Where(cond).Updates(update)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *DatabaseService) UpdateEpisodeAudioPath(episodeId, audioPath string) (int64, error) {
	cond := &dbmodels.Episode{
		EpisodeId: episodeId,
	}

	update := map[string]interface{}{
		"audio_path": audioPath,
	}

	result := s.db.Model(&dbmodels.Episode{}).Where(cond).Updates(update)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *DatabaseService) DeleteEpisode(episodeId string) (int64, error) {
	cond := &dbmodels.Episode{
		EpisodeId: episodeId,
	}

	result := s.db.Where(cond).Delete(&dbmodels.Episode{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
