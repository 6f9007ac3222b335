// Package bedrock provides AI service implementations using Amazon Bedrock.
//
// This package implements the ai.Provider interface using the langchaingo
// Bedrock integrations: Titan text embeddings for page and query vectors and
// a Titan text model for answer generation.
//
// # Usage
//
//	awsCfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider, err := bedrock.NewProvider(awsCfg, ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "sample text")
//	answer, err := llms.GenerateFromSinglePrompt(ctx, provider.Model(), "Hello")
package bedrock
