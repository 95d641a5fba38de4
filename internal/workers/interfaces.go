// Package workers groups the client's background workers behind one
// aggregate so startup code can launch them in a single call.
package workers

// Worker is a unit of background work. Run either blocks for the duration
// of the work or spawns goroutines internally and returns.
type Worker interface {
	Run()
}
