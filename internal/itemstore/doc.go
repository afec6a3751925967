// Package itemstore is the fact store facade: two drives, one API.
//
// Writes go to an explicitly named drive ("user" or "system"). Reads run the
// same query on both drives concurrently and merge the results with
// ir.Merge, so callers see one collection ordered newest first.
//
// After every committed write the store publishes a ChangeEvent to its
// subscribers, synchronously, on the writer's goroutine, in subscription
// order.
//
// Items and relationships have no storage of their own; they are facts that
// share an itemId. Create, Define, RemoveFact and DeleteItem write those
// facts. Removed facts and deleted items are returned by every fetch; Live
// filters them out when a caller wants the live view.
package itemstore
