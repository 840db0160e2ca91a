package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "dashbot"
)

// Каналы Pub/Sub (топики дашборда)
const (
	// RedisChanPluginCommands — единственный канал управляющих сообщений к плагину.
	// Плагин держит одну подписку и получает весь управляющий трафик:
	// status start/stop, cron-команды, session_kill.
	RedisChanPluginCommands = RedisNamespace + ":plugin_commands"

	// RedisChanStatusUpdates — свежий статус-снапшот для всех подключенных зрителей.
	RedisChanStatusUpdates = RedisNamespace + ":status_updates"

	// RedisChanEvents — общий топик журнала жизненного цикла агента.
	RedisChanEvents = RedisNamespace + ":events"

	// RedisChanChatPrefix — префикс per-session топиков чата, см. ChatChannel.
	RedisChanChatPrefix = RedisNamespace + ":chat:"
)

// ChatChannel строит имя топика для конкретной сессии чата.
func ChatChannel(sessionID string) string {
	return fmt.Sprintf("%s%s", RedisChanChatPrefix, sessionID)
}
