package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestGenerateClaudeFormat(t *testing.T) {
	invoker := &fakeInvoker{body: `{"completion": " Not Spam "}`}
	client := NewBedrockClient(invoker, "anthropic.claude-v2", 500, 0.9, zap.NewNop())

	out, err := client.Generate(context.Background(), "Is this spam?", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "Not Spam", out)

	assert.Equal(t, "anthropic.claude-v2", aws.ToString(invoker.input.ModelId))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(invoker.input.Body, &payload))
	assert.Equal(t, "\n\nHuman: Is this spam?\n\nAssistant:", payload["prompt"])
	assert.EqualValues(t, 500, payload["max_tokens_to_sample"])
	assert.InDelta(t, 0.2, payload["temperature"], 0.0001)
}

func TestGenerateTitanFormat(t *testing.T) {
	invoker := &fakeInvoker{body: `{"results": [{"outputText": "Work\n"}]}`}
	client := NewBedrockClient(invoker, "amazon.titan-text-express-v1", 200, 0.9, zap.NewNop())

	out, err := client.Generate(context.Background(), "Classify", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "Work", out)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(invoker.input.Body, &payload))
	assert.Equal(t, "Classify", payload["inputText"])
	genCfg := payload["textGenerationConfig"].(map[string]any)
	assert.EqualValues(t, 200, genCfg["maxTokenCount"])
}

func TestGenerateTitanEmptyResults(t *testing.T) {
	invoker := &fakeInvoker{body: `{"results": []}`}
	client := NewBedrockClient(invoker, "amazon.titan-text-lite-v1", 200, 0.9, zap.NewNop())

	_, err := client.Generate(context.Background(), "Classify", 0.3)
	assert.Error(t, err)
}

func TestGenerateGenericFallsBackToRawBody(t *testing.T) {
	invoker := &fakeInvoker{body: `{"unexpected": true}`}
	client := NewBedrockClient(invoker, "meta.llama3", 200, 0.9, zap.NewNop())

	out, err := client.Generate(context.Background(), "hello", 0.2)
	require.NoError(t, err)
	assert.Equal(t, `{"unexpected": true}`, out)
}

func TestGenerateInvokeFailure(t *testing.T) {
	invoker := &fakeInvoker{err: errors.New("throttled")}
	client := NewBedrockClient(invoker, "anthropic.claude-v2", 200, 0.9, zap.NewNop())

	_, err := client.Generate(context.Background(), "hello", 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
