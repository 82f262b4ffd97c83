package constant

const (
	DevelopmentEnvironment = "development"
	ProductionEnvironment  = "production"
)

const (
	FeedSourceConfig   = "config"
	FeedSourceDatabase = "database"

	FeedDatabaseName = "feed_data"
	FeedRedisName    = "feed_status"
)
