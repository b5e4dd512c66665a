// Package crt provides a lightweight, embeddable task-parallel runtime:
// a work-stealing scheduler for fine-grained asynchronous tasks under
// hierarchical, nested "finish" termination barriers, plus an address-
// keyed mutual-exclusion primitive (isolation) for deadlock-free
// multi-region critical sections.
//
// The runtime supports:
//   - A bounded work-stealing deque per worker, with hierarchical steal
//     escalation across a place tree (memory/cache/NUMA/compute nodes).
//   - Nested finish scopes with counter-based quiescence detection and a
//     non-blocking helper-join on end_finish.
//   - Deadlock-free multi-address isolation via a globally ordered lock
//     acquisition protocol.
//   - Environment-driven configuration (CRT_WORKERS, CRT_HPT_FILE,
//     CRT_BIND_THREADS, CRT_STATS, CRT_MM_ALLOCBATCHSIZE) and a fixed,
//     tab-separated statistics line for scripted consumption.
//
// The companion mailbox package (github.com/go-foundations/crt/mailbox)
// layers an actor-style message-aggregation selector on top of an
// external all-to-all conveyor transport.
package crt
