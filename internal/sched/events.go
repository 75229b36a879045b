package sched

// EventSet scans every task other than the caller for a pending
// EventMask overlap with mask, clearing the matched bits and marking the
// task runnable, the counterpart of sys_event_set's walk over the process
// ring "from cur->list.next back around to cur". It returns how many tasks
// were released.
func (s *Scheduler) EventSet(caller *Task, mask uint32) int {
	s.mu.Lock()
	tasks := make([]*Task, len(s.order))
	copy(tasks, s.order)
	s.mu.Unlock()

	hit := 0
	for _, t := range tasks {
		if t == caller || t.State() == StateKilled {
			continue
		}
		if t.EventMask.TestAndClear(mask) {
			t.setState(StateRun)
			hit++
		}
	}
	return hit
}
