// Package booru provides a search client for Gelbooru-compatible imageboard APIs.
//
// Gelbooru and Rule34 both expose the "DAPI" post index
// (index.php?page=dapi&s=post&q=index&json=1). The two differ in response shape:
// Gelbooru wraps posts in an envelope whose "post" member may be a list, a single
// object or missing, while Rule34 answers with a bare list or an empty body. Both are
// decoded into a SearchResult, whose Posts method yields a plain slice.
//
// Example usage:
//
//	client, err := booru.NewClientForSource(httpClient, "gelbooru", creds, log)
//	if err != nil {
//	    return err
//	}
//	result, err := client.SearchPosts(ctx, booru.SearchRequest{
//	    Tags:  []string{"cat"},
//	    Page:  0,
//	    Limit: booru.DefaultLimit,
//	})
//	for _, post := range result.Posts() {
//	    fmt.Println(post.FileURL, post.Filename)
//	}
package booru
