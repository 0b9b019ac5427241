// Package chunker splits crawled markdown pages into token-bounded,
// header-aware chunks ready for embedding.
//
// A page goes through five stages, each fed by the previous one:
//
//	Strip            remove navigation and UI boilerplate lines
//	IdentifySections walk the page tracking H1/H2/H3 and code fences
//	splitSection     cut each section into drafts under the soft token limit
//	adjust           merge undersized drafts into a neighbor when it fits
//	ApplyOverlap     prepend the tail of the previous chunk to each chunk
//
// Stages never fail on malformed markdown. Unclosed fences, oversized chunks
// and overlap that does not fit are recorded in the run's validator.Report.
//
// # Basic Usage
//
//	tok := tokenizer.NewWord()
//	c, err := chunker.NewMarkdownChunker(config.DefaultChunking(), tok)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := chunker.NewPipeline(c, validator.New(cfg.MinChunkSize, cfg.MaxTokens))
//	result, err := p.Run(ctx, doc)
//
// Token counts are always measured with the configured tokenizer, never
// estimated from character counts.
package chunker
