package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

func dlqKey(queue string) string { return DLQPrefix + queue }

// FalloJob is what lands in dlq:<queue>: the original envelope plus why and
// when it was given up on. An envelope that could not be decoded is kept as a
// JSON string payload with an empty type.
type FalloJob struct {
	Job
	Cola     string    `json:"cola"`
	Motivo   string    `json:"motivo"`
	Intentos int       `json:"intentos"`
	Fecha    time.Time `json:"fecha"`
}

func nuevoFallo(queue string, job Job, motivo string, intentos int, now time.Time) FalloJob {
	return FalloJob{Job: job, Cola: queue, Motivo: motivo, Intentos: intentos, Fecha: now.UTC()}
}

// SendToDLQ parks job under dlq:<queue>. It never fails; push errors are
// logged and the job is dropped.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, motivo string, intentos int) {
	fallo := nuevoFallo(queue, job, motivo, intentos, time.Now())
	data, err := json.Marshal(fallo)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal")
		return
	}
	if err := rdb.LPush(ctx, dlqKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey(queue)).Str("type", job.Type).Msg("dlq: push failed, job dropped")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Str("motivo", motivo).
		Int("intentos", intentos).
		Msg("dlq: job parked")
}

// DLQLength is reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}
