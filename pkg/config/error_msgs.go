package config

// User-facing messages are kept in Portuguese, matching the learning
// audience of the app.
const (
	MsgReady                = "Pronto para comecar"
	MsgQueryNotProvided     = "Query nao fornecida"
	MsgUrlNotProvided       = "URL nao fornecida"
	MsgProcessingInProgress = "Ja existe um processamento em andamento"
	MsgEpisodeNotInCache    = "Episodio nao encontrado no cache"
	MsgAudioNotFound        = "Audio nao encontrado"
	MsgPodcastSearchFailed  = "Erro ao buscar podcasts"
	MsgLoadedFromCache      = "Carregado do cache!"
	MsgDownloading          = "Baixando podcast..."
	MsgRedownloadingAudio   = "Baixando audio novamente..."
	MsgTranscribing         = "Transcrevendo (pode levar alguns minutos)..."
	MsgTranslating          = "Traduzindo..."
)
