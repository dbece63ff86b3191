package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"safetube-pipeline/internal/types"
)

// ArtifactKind selects which artifact key pair a RecordArtifact call writes.
type ArtifactKind string

const (
	ArtifactTranscript ArtifactKind = "transcript"
	ArtifactInsights   ArtifactKind = "insights"
)

type api interface {
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Ledger is the durable per-job status record, keyed by video_id. Writes from
// the pipeline are observability aids, not locks: callers log and swallow the
// returned errors.
type Ledger struct {
	client api
	table  string
	now    func() time.Time
}

func New(client *dynamodb.Client, table string) *Ledger {
	return &Ledger{client: client, table: table, now: time.Now}
}

func newWithAPI(client api, table string) *Ledger {
	return &Ledger{client: client, table: table, now: time.Now}
}

func (l *Ledger) key(videoID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"video_id": &ddbtypes.AttributeValueMemberS{Value: videoID},
	}
}

// UpsertStatus sets the lifecycle status. With a failure message it also
// stores the message, retry count and a last-failure timestamp; without one it
// removes all three so successful transitions scrub prior failure context.
func (l *Ledger) UpsertStatus(ctx context.Context, videoID string, status types.Status, errMsg string, retryCount int) error {
	if l.table == "" || videoID == "" {
		return nil
	}

	names := map[string]string{
		"#s":   "status",
		"#err": "error",
		"#rc":  "retry_count",
		"#lf":  "last_failed_at",
	}
	values := map[string]ddbtypes.AttributeValue{
		":s": &ddbtypes.AttributeValueMemberS{Value: string(status)},
	}

	var expr string
	switch {
	case errMsg != "":
		expr = "SET #s = :s, #err = :e, #rc = :rc, #lf = :lf"
		values[":e"] = &ddbtypes.AttributeValueMemberS{Value: errMsg}
		values[":rc"] = &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(retryCount)}
		values[":lf"] = &ddbtypes.AttributeValueMemberS{Value: types.Timestamp(l.now())}
	case status == types.StatusRetrying:
		// retrying keeps the incremented count visible while scrubbing the
		// stale error detail of the attempt being retried
		expr = "SET #s = :s, #rc = :rc REMOVE #err, #lf"
		values[":rc"] = &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(retryCount)}
	default:
		expr = "SET #s = :s REMOVE #err, #rc, #lf"
	}

	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(l.table),
		Key:                       l.key(videoID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("ledger upsert status %s for %s: %w", status, videoID, err)
	}
	return nil
}

// RecordArtifact stores the S3 key and save timestamp for one artifact kind
// without touching status. Artifact keys are write-once per successful stage
// and are never cleared by later failures.
func (l *Ledger) RecordArtifact(ctx context.Context, videoID string, kind ArtifactKind, s3Key string) error {
	if l.table == "" || videoID == "" {
		return nil
	}

	expr := fmt.Sprintf("SET %s_s3_key = :key, %s_saved_at = :time", kind, kind)
	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(l.table),
		Key:              l.key(videoID),
		UpdateExpression: aws.String(expr),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":key":  &ddbtypes.AttributeValueMemberS{Value: s3Key},
			":time": &ddbtypes.AttributeValueMemberS{Value: types.Timestamp(l.now())},
		},
	})
	if err != nil {
		return fmt.Errorf("ledger record %s artifact for %s: %w", kind, videoID, err)
	}
	return nil
}

// Get returns the stored record, or nil when the video is unknown.
func (l *Ledger) Get(ctx context.Context, videoID string) (*types.VideoRecord, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.table),
		Key:       l.key(videoID),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger get %s: %w", videoID, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec types.VideoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("ledger unmarshal %s: %w", videoID, err)
	}
	return &rec, nil
}

// PutNew writes the initial metadata record at submission time.
func (l *Ledger) PutNew(ctx context.Context, rec types.VideoRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("ledger marshal %s: %w", rec.VideoID, err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("ledger put %s: %w", rec.VideoID, err)
	}
	return nil
}
