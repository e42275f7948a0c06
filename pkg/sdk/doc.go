// Package studyplan embeds the study-plan assistant in a Go program without
// running the HTTP server.
//
// The client routes each message the same way the server does:
//   - "create a study plan for X" style requests return an HTML table
//   - "search: X" and "/search X" answer from web search results
//   - anything else is a plain conversational reply
//
// Every reply is a string; backend trouble becomes a fixed apology or the
// fallback table rather than an error.
//
// # Quick start
//
//	client, _ := studyplan.New(ctx,
//	    studyplan.WithGemini(os.Getenv("GEMINI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	reply, _ := client.Chat(ctx, "session-1", "create a study plan for calculus")
//	fmt.Println(reply)
//
// # Bring your own model
//
//	client, _ := studyplan.New(ctx,
//	    studyplan.WithLLM(myModel),      // implements studyplan.LLM
//	    studyplan.WithRedis("localhost:6379", ""),
//	    studyplan.WithoutSearch(),
//	)
package studyplan
