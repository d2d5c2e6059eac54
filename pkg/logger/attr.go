package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// AlertID records the alert identifier under the key "alert_id".
func AlertID(id string) slog.Attr {
	return slog.String("alert_id", id)
}

// CampsiteID records the campsite identifier under the key "campsite_id".
func CampsiteID(id string) slog.Attr {
	return slog.String("campsite_id", id)
}

// ConnectionID records the connection identifier under the key "connection_id".
func ConnectionID(id string) slog.Attr {
	return slog.String("connection_id", id)
}

// Topic records the pub/sub topic under the key "topic".
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Component records the emitting component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Job records the scheduler job name under the key "job".
func Job(name string) slog.Attr {
	return slog.String("job", name)
}

// CacheKey records the cache key under the key "cache_key".
func CacheKey(key string) slog.Attr {
	return slog.String("cache_key", key)
}
