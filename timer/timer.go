// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Manager runs delayed and repeating callbacks from a single ticking goroutine.
type Manager struct {
	queue     taskQueue
	byID      map[int64]*Task
	mutex     sync.Mutex
	nextID    int64
	tick      time.Duration
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewManager starts a manager that checks for due tasks every tick.
func NewManager(tick time.Duration) *Manager {
	m := &Manager{
		queue:     make(taskQueue, 0),
		byID:      make(map[int64]*Task),
		nextID:    1,
		tick:      tick,
		closeChan: make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// AddTimer schedules callback after delay, repeating every interval if interval > 0.
func (m *Manager) AddTimer(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	m.byID[task.ID] = task
	return task.ID
}

// ResetTimer pushes a pending task's deadline to delay from now. It reports false if the task is gone.
func (m *Manager) ResetTimer(id int64, delay time.Duration) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, ok := m.byID[id]
	if !ok {
		return false
	}
	task.Execute = time.Now().Add(delay)
	heap.Fix(&m.queue, task.index)
	return true
}

func (m *Manager) RemoveTimer(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if task, ok := m.byID[id]; ok {
		heap.Remove(&m.queue, task.index)
		delete(m.byID, id)
	}
}

func (m *Manager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

func (m *Manager) Stop() {
	m.closeOnce.Do(func() { close(m.closeChan) })
}

func (m *Manager) process() {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, task := range m.due(time.Now()) {
				go task.Callback()
			}
		case <-m.closeChan:
			return
		}
	}
}

func (m *Manager) due(now time.Time) []*Task {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []*Task
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}

		heap.Pop(&m.queue)
		ready = append(ready, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		} else {
			delete(m.byID, task.ID)
		}
	}
	return ready
}
