// Package summit provides an HTTP client for the Summit build dashboard.
//
// Summit schedules package builds for the recipe repositories. Its task
// enumeration endpoint is paged; FetchRecent walks the first pages and
// Order puts active work first.
//
// # Usage
//
//	tasks, err := summit.NewClient().FetchRecent(ctx, summit.DefaultPages)
//	for _, t := range summit.Order(tasks) {
//		fmt.Println(t.ID, t.Package(), t.Status)
//	}
package summit
