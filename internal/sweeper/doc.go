// Package sweeper реализует периодический обход активных projects
// с детекцией каскадных рекомендаций.
//
// Sweeper дополняет event-driven путь watcher'а: рекомендации,
// потерянные из-за сбоев MQ или простоя, будут найдены ближайшим
// обходом по cron-расписанию (SWEEP_CRON, default "*/5 * * * *").
package sweeper
