package lookup

import "fmt"

// Kind tags the outcome of a single address lookup.
type Kind int

const (
	// TransportError covers connection failures, timeouts and bodies that
	// do not decode into the expected shape.
	TransportError Kind = iota
	// Attributed means the service returned a non-null chain_stats.tx_count.
	Attributed
	// NotAttributed means the service answered 2xx but tx_count was absent or null.
	NotAttributed
	// NotFound means the service answered with a non-2xx status.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Attributed:
		return "attributed"
	case NotAttributed:
		return "not_attributed"
	case NotFound:
		return "not_found"
	case TransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the normalized outcome of a lookup. Only the fields relevant to
// Kind are set.
type Result struct {
	Kind       Kind
	TxCount    int64 // Attributed
	StatusCode int   // NotFound
	Err        error // TransportError
}

func (r Result) String() string {
	switch r.Kind {
	case Attributed:
		return fmt.Sprintf("attributed(%d)", r.TxCount)
	case NotFound:
		return fmt.Sprintf("not_found(status %d)", r.StatusCode)
	case TransportError:
		return fmt.Sprintf("transport_error(%v)", r.Err)
	default:
		return r.Kind.String()
	}
}

// OK reports whether the lookup reached the service and got a usable answer.
func (r Result) OK() bool {
	return r.Kind == Attributed || r.Kind == NotAttributed
}
