// Package harness runs conformance scenarios against a fact store.
//
// A scenario is a YAML file describing store operations and the outcomes
// they must produce. Each run gets a fresh in-memory store with a
// deterministic clock and id sequence, so traces are stable enough for
// golden comparison.
//
// # Scenario Format
//
//	name: todo_lifecycle
//	description: "Define, override and remove a todo title"
//	setup:
//	  - op: create
//	    drive: user
//	    item: todo-1
//	    type: todo
//	flow:
//	  - op: define
//	    drive: system
//	    item: todo-1
//	    attribute: title
//	    value: Buy oat milk
//	  - op: recent
//	    item: todo-1
//	    attribute: title
//	    expect:
//	      values: [Buy oat milk]
//	  - op: relate
//	    drive: user
//	    from: alice
//	    to: bob
//	    relationship: likes
//	    as: r1
//	assertions:
//	  - type: live_value
//	    item: todo-1
//	    attribute: title
//	    value: Buy oat milk
//
// Setup steps must succeed. Flow steps may carry an expect clause naming
// an error class, a result count, result values or result ids. A step
// with "as" binds its returned id; later steps refer to it as ${name}.
//
// # Operations
//
//   - insert, define: write one fact (type defaults to string)
//   - create: create an item, type is the item type
//   - remove: soft-delete the most recent fact of item.attribute
//   - relate: create a relationship item
//   - fetch, range, dates, recent: the four query shapes
//   - find_rel: relationship lookup by endpoint and type
//
// # Assertion Types
//
//   - live_value: newest surviving fact of item.attribute has value
//   - no_fact: item.attribute has no surviving fact
//   - fact_count: a drive holds exactly count facts
//   - related: find_rel over from/to/relationship returns count ids
package harness
