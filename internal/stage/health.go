package stage

// Health summarizes the readiness of a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

func (h Health) String() string {
	switch {
	case h.Ready:
		return h.Name + ": ready"
	case h.Detail != "":
		return h.Name + ": " + h.Detail
	default:
		return h.Name + ": not ready"
	}
}
