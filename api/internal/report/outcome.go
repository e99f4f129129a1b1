package report

type PersistStatus int

const (
	Persisted PersistStatus = iota
	PersistFailed
)

func (s PersistStatus) String() string {
	if s == Persisted {
		return "persisted"
	}
	return "persist_failed"
}

// PersistOutcome is the side-channel result of best-effort storage.
// Reason is set only for PersistFailed.
type PersistOutcome struct {
	Status PersistStatus
	Reason error
}

func PersistOK() PersistOutcome { return PersistOutcome{Status: Persisted} }

func PersistError(reason error) PersistOutcome {
	return PersistOutcome{Status: PersistFailed, Reason: Wrap(KindPersistence, "persist report", reason)}
}

func (o PersistOutcome) OK() bool { return o.Status == Persisted }
