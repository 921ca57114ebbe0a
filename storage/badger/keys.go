package badger

import "fmt"

// Key prefixes for different data types
const (
	policyPrefix       = "wspol"
	reviewPrefix       = "revrec"
	reviewUserPrefix   = "revrecu"
	reviewStatusPrefix = "revrecs"
	checkpointPrefix   = "runchk"
)

// makePolicyKey generates a key for a workspace policy.
func makePolicyKey(workspaceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", policyPrefix, workspaceID))
}

// makeReviewKey generates a key for a review record by ID.
func makeReviewKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", reviewPrefix, id))
}

// makeReviewUserKey generates a composite key for the owner index.
// Format: prefix:userID:recordID
func makeReviewUserKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", reviewUserPrefix, userID, id))
}

// makePartialReviewUserKey generates a partial key for owner queries.
func makePartialReviewUserKey(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", reviewUserPrefix, userID))
}

// makeReviewStatusKey generates a composite key for the status index.
// Format: prefix:status:recordID
func makeReviewStatusKey(status, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", reviewStatusPrefix, status, id))
}

// makePartialReviewStatusKey generates a partial key for status queries.
func makePartialReviewStatusKey(status string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", reviewStatusPrefix, status))
}

// makeCheckpointKey generates a key for a run checkpoint by thread.
func makeCheckpointKey(threadID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, threadID))
}
