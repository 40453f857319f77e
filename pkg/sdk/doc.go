// Package medsearch embeds the medicine and pharmacy search engine in a Go
// program: debounced search sessions, filter composition and a persistent
// recents list, without running the HTTP service.
//
// # One-shot search
//
//	client, _ := medsearch.New(ctx)
//	defer client.Close()
//	results, _ := client.Search(ctx, "para", medsearch.FilterAvailability)
//
// # Interactive sessions
//
//	s := client.NewSession()
//	defer s.Close()
//	s.Input("amox")
//	_ = s.Wait(ctx)
//	view := s.View(ctx)
//	location, _ := s.Select(ctx, view.Medicines[0].ID)
//
// By default the client searches the built-in sample catalog and keeps
// recents in memory. WithValkey or WithRedis persist recents; WithRemote
// searches a remote catalog API instead.
package medsearch
