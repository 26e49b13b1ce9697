// Package casebud provides a Go client for the CaseBud legal assistant API.
//
//	client, _ := casebud.New("http://localhost:8000", casebud.WithAPIKey(key))
//	ans, err := client.Ask(ctx, "What is an NDA?", casebud.DeepThink())
//	if errors.Is(err, casebud.ErrServiceUnavailable) {
//	    // no model finished warm-up yet
//	}
//	fmt.Println(ans.Response, ans.WantsDocument())
//
// Web-search answers carry no document flag:
//
//	ans, _ := client.Ask(ctx, "latest Supreme Court ruling on bail", casebud.WebSearch())
//	fmt.Println(ans.Source) // "web_search"
package casebud
