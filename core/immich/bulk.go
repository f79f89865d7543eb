package immich

import "fmt"

// BulkOutcome is the reconciliation of a bulk operation's result list against its
// input id list. The API returns one {id, success, error} per input id; a 2xx status
// alone proves nothing, so every call site walks the outcome instead.
type BulkOutcome struct {
	// Succeeded are the ids the server confirmed.
	Succeeded []string
	// Recovered maps ids to known-recoverable error strings ("duplicate", ...).
	Recovered map[string]string
	// Failed maps ids to unrecognized error strings.
	Failed map[string]string
	// Missing are input ids the result list never mentioned.
	Missing []string
}

// ReconcileBulk matches results against the input ids.
func ReconcileBulk(inputIDs []string, results []BulkResult) BulkOutcome {
	outcome := BulkOutcome{
		Recovered: make(map[string]string),
		Failed:    make(map[string]string),
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.ID] = struct{}{}
		switch {
		case r.Success:
			outcome.Succeeded = append(outcome.Succeeded, r.ID)
		case r.Recoverable():
			outcome.Recovered[r.ID] = r.Error
		default:
			outcome.Failed[r.ID] = r.Error
		}
	}

	for _, id := range inputIDs {
		if _, ok := seen[id]; !ok {
			outcome.Missing = append(outcome.Missing, id)
		}
	}

	return outcome
}

// Err returns a single error summarizing hard failures and missing ids, or nil when
// every input id either succeeded or failed recoverably.
func (o BulkOutcome) Err(op string) error {
	if len(o.Failed) == 0 && len(o.Missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %d failed, %d missing from result list", op, len(o.Failed), len(o.Missing))
}
