// internal/workers/review/notify-applicant/handler.go
package notifyapplicant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsclients "fishery-permit/internal/common/aws"
	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-applicant"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	sesClient SESService
	snsClient SNSService
	errors    *errors.ErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	clients, err := awsclients.NewClients(context.Background(), config.AWSRegion)
	if err != nil {
		return nil, err
	}
	return newHandler(config, clients.SES, clients.SNS, log), nil
}

func newHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job,
			errors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	start := time.Now()
	output, err := h.execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, ok := templates[input.Status]
	if !ok {
		return nil, errors.NewApplicationValidationFailedError(
			fmt.Sprintf("no notification template for status %q", input.Status))
	}

	data := map[string]string{
		"applicantName":     input.ApplicantName,
		"applicationNumber": input.ApplicationNumber,
	}
	if len(input.RiskReasons) > 0 {
		data["reasons"] = "사유: " + strings.Join(input.RiskReasons, ", ")
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	output := &Output{
		NotificationID:     uuid.New().String(),
		NotificationStatus: StatusDisabled,
		Channels:           []string{},
		SentAt:             h.now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && input.ApplicantEmail != "" {
		if err := h.sendEmail(ctx, input.ApplicantEmail, subject, body); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	// Text messages go out only once a decision is made.
	if h.config.SMSEnabled && input.ApplicantPhone != "" && input.Status.Terminal() {
		phone, err := toE164(input.ApplicantPhone)
		if err != nil {
			h.logger.Warn("skipping SMS", map[string]interface{}{
				"applicationNumber": input.ApplicationNumber,
				"error":             err.Error(),
			})
		} else {
			if err := h.sendSMS(ctx, phone, body); err != nil {
				return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
			}
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if len(output.Channels) > 0 {
		output.NotificationStatus = StatusSent
	}

	h.logger.Info("applicant notified", map[string]interface{}{
		"applicationNumber": input.ApplicationNumber,
		"status":            input.Status,
		"channels":          output.Channels,
	})
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
