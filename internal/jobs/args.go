package jobs

// DispatchArgs runs one bounded dispatch batch. Enqueued periodically
// (every minute by default).
type DispatchArgs struct{}

func (DispatchArgs) Kind() string { return "dispatch_due_notifications" }

// RetentionArgs purges terminal tasks older than the retention window
type RetentionArgs struct{}

func (RetentionArgs) Kind() string { return "purge_terminal_tasks" }

// AttachmentCleanupArgs deletes the attachments of aged posts
type AttachmentCleanupArgs struct{}

func (AttachmentCleanupArgs) Kind() string { return "purge_post_attachments" }
