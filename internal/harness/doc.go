// Package harness runs scripted learner sessions against the orchestrator.
//
// A scenario seeds chapters into an in-memory store, then plays a flow of
// steps (loading the view, answering, revealing, retrying, reopening a
// question, or injecting store failures) and checks the outcome of each.
// Queued writes are drained after every step, so the trace is deterministic
// and can be compared against golden snapshots.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	user: learner-1
//	chapters:
//	  - id: ch1
//	    title: Basics
//	    questions:
//	      - {id: q1, title: One, questionText: "?", options: [a, b], correctAnswer: 1}
//	flow:
//	  - step: answer
//	    chapter: ch1
//	    question: q1
//	    selected: 1
//	    expect:
//	      case: correct
//	      result: {next: ch1/q2}
//	  - step: fail
//	    op: replace
//	    count: 2
//	assertions:
//	  - type: trace_count
//	    action: progress.completion q1
//	    count: 1
//	  - type: question_state
//	    chapter: ch1
//	    question: q1
//	    state: completed
//	  - type: final_state
//	    collection: userProgress
//	    id: learner-1
//	    expect: {completedQuestions: [q1]}
//
// # Steps
//
//   - load: LoadView; result has completed, total, percent, wrong_attempts, resume
//   - answer: SubmitAnswer; case correct (next) or wrong (attempt, reveal_offered)
//   - reveal: accept an offered reveal; result has correct_answer
//   - retry: decline an offered reveal
//   - open: start the question afresh
//   - fail: the next count calls of store op fail with a transport error
//
// Failed steps complete with case error and an error kind such as
// unknown_question or invalid_transition.
package harness
