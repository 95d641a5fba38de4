package workers

type Workers struct {
	workers []Worker
}

// NewWorkers builds the aggregate; workers run in the given order.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
