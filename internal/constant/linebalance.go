package constant

import "time"

const (
	LineBalanceStreamName = "linebalance-events"

	LineBalanceSubjectPrefix   = "LINEBALANCE."
	LineBalanceSubjectWildcard = LineBalanceSubjectPrefix + "*"

	LineBalanceSubjectStudyCreated     = LineBalanceSubjectPrefix + "study_created"
	LineBalanceSubjectTakeCreated      = LineBalanceSubjectPrefix + "take_created"
	LineBalanceSubjectCycleTimeUpdated = LineBalanceSubjectPrefix + "cycle_time_updated"
	LineBalanceSubjectTakeDeleted      = LineBalanceSubjectPrefix + "take_deleted"
	LineBalanceSubjectStudyDeleted     = LineBalanceSubjectPrefix + "study_deleted"

	// StudyViewCachePrefix namespaces reconciled study views in Redis.
	StudyViewCachePrefix = "linebalance-view"

	// StudyCreationMutexPrefix namespaces the redsync mutex serializing study creation.
	StudyCreationMutexPrefix = "mutex:linebalance-create:"

	ArchiveMutexPrefix = "mutex:linebalance-archive:"

	// LineBalanceIdempotencyLifetime is how long the response of an idempotent create is replayed.
	LineBalanceIdempotencyLifetime = time.Hour * 24

	LineBalanceIdempotencyRedisPrefix = "idempotency:linebalance:"
)
