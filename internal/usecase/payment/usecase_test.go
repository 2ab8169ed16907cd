package payment

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/bitcoin"
	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/metrics"
)

type fakeTransactionRepo struct {
	mu        sync.Mutex
	requests  map[string]*domain.TransactionRequest
	responses map[string]*domain.TransactionResponse
	claimed   map[string]bool
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		requests:  make(map[string]*domain.TransactionRequest),
		responses: make(map[string]*domain.TransactionResponse),
		claimed:   make(map[string]bool),
	}
}

func (r *fakeTransactionRepo) CreateRequest(request *domain.TransactionRequest, response *domain.TransactionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *request
	cp.Approvers = append([]domain.Approver(nil), request.Approvers...)
	r.requests[request.ID] = &cp
	rcp := *response
	r.responses[response.TransactionID] = &rcp
	return nil
}

func (r *fakeTransactionRepo) getLocked(transactionID string) (*domain.TransactionRequest, error) {
	request, ok := r.requests[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *request
	cp.Approvers = append([]domain.Approver(nil), request.Approvers...)
	return &cp, nil
}

func (r *fakeTransactionRepo) GetRequest(transactionID string) (*domain.TransactionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(transactionID)
}

func (r *fakeTransactionRepo) GetRequestLocked(transactionID string) (*domain.TransactionRequest, error) {
	return r.GetRequest(transactionID)
}

func (r *fakeTransactionRepo) GetResponse(transactionID string) (*domain.TransactionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	response, ok := r.responses[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *response
	return &cp, nil
}

func (r *fakeTransactionRepo) UpdateApproverStatus(transactionID, approvalRequestID string, status domain.ApprovalStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[transactionID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for i := range request.Approvers {
		a := &request.Approvers[i]
		if a.ApprovalRequestID == approvalRequestID && a.Status == domain.ApprovalPending {
			a.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTransactionRepo) SetApproverStatus(approverID string, status domain.ApprovalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		for i := range request.Approvers {
			if request.Approvers[i].ID == approverID {
				request.Approvers[i].Status = status
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakeTransactionRepo) SetApproverCorrelation(approverID, approvalRequestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		for i := range request.Approvers {
			if request.Approvers[i].ID == approverID {
				request.Approvers[i].ApprovalRequestID = approvalRequestID
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakeTransactionRepo) ClaimSubmission(transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	response, ok := r.responses[transactionID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if r.claimed[transactionID] || response.Resolved() {
		return false, nil
	}
	r.claimed[transactionID] = true
	return true, nil
}

func (r *fakeTransactionRepo) ResolveResponse(response *domain.TransactionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.responses[response.TransactionID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Resolved() {
		return nil
	}
	cp := *response
	r.responses[response.TransactionID] = &cp
	return nil
}

type fakeAccountRepo struct {
	accounts map[string]*domain.Account
}

func (r *fakeAccountRepo) GetByIdentifier(tenantID, identifier string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.Identifier == identifier {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAccountRepo) GetByID(accountID string) (*domain.Account, error) {
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

type fakeTenantRepo struct {
	tenant *domain.Tenant
}

func (r *fakeTenantRepo) GetByCode(code string) (*domain.Tenant, error) {
	if r.tenant != nil && r.tenant.Code == code {
		return r.tenant, nil
	}
	return nil, domain.ErrNotFound
}

type fakeIdempotencyRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *fakeIdempotencyRepo) Acquire(tenantID, key, accountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	composite := tenantID + "|" + key + "|" + accountID
	if r.seen[composite] {
		return false, nil
	}
	r.seen[composite] = true
	return true, nil
}

type fakeChainClient struct {
	mu           sync.Mutex
	balanceSat   int64
	utxos        []domain.UTXO
	height       int64
	feeRate      float64
	broadcasts   int
	broadcastErr error
	chainTx      *domain.ChainTransaction
}

func (c *fakeChainClient) GetAccount(ctx context.Context, address string) (*domain.ChainAccount, error) {
	return &domain.ChainAccount{Address: address, BalanceSat: c.balanceSat}, nil
}

func (c *fakeChainClient) GetUtxos(ctx context.Context, address string) ([]domain.UTXO, error) {
	return c.utxos, nil
}

func (c *fakeChainClient) GetFeeRate(ctx context.Context) (float64, error) {
	return c.feeRate, nil
}

func (c *fakeChainClient) GetChainHeight(ctx context.Context) (int64, error) {
	return c.height, nil
}

func (c *fakeChainClient) GetTransaction(ctx context.Context, hash string) (*domain.ChainTransaction, error) {
	if c.chainTx == nil {
		return nil, &domain.ChainServiceError{Op: "get transaction", Err: domain.ErrNotFound}
	}
	return c.chainTx, nil
}

func (c *fakeChainClient) Broadcast(ctx context.Context, signedTxHex string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broadcastErr != nil {
		return "", c.broadcastErr
	}
	c.broadcasts++
	return strings.Repeat("f", 64), nil
}

func (c *fakeChainClient) broadcastCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcasts
}

// fakeSigner signs by attaching a placeholder signature script to every
// input, which keeps the output structurally valid for re-validation.
type fakeSigner struct{}

func (fakeSigner) Sign(ctx context.Context, req domain.SignRequest) (string, error) {
	raw, err := hex.DecodeString(req.UnsignedTxHex)
	if err != nil {
		return "", err
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return "", err
	}
	for _, in := range tx.TxIn {
		in.SignatureScript = bytes.Repeat([]byte{0x51}, 72)
	}
	return bitcoin.EncodeTx(&tx)
}

type fakePush struct {
	mu           sync.Mutex
	unregistered map[int]bool
	sent         []domain.PushApprovalRequest
	nextID       int
}

func (p *fakePush) HasRegisteredDevice(ctx context.Context, authyID int) (bool, error) {
	return !p.unregistered[authyID], nil
}

func (p *fakePush) SendApprovalRequest(ctx context.Context, req domain.PushApprovalRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, req)
	p.nextID++
	return "corr-" + strings.Repeat("0", 3) + string(rune('a'+p.nextID)), nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (p *fakePublisher) Publish(topic string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msgs...)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

type fakeSubscriber struct {
	ch chan domain.Message
}

func (s *fakeSubscriber) Subscribe(topic, groupID string) (<-chan domain.Message, error) {
	return s.ch, nil
}

type fixture struct {
	uc    *DefaultPaymentUsecase
	repo  *fakeTransactionRepo
	chain *fakeChainClient
	push  *fakePush
	pub   *fakePublisher
}

func testMetrics() *metrics.PaymentMetrics {
	metricsOnce.Do(func() { sharedMetrics = metrics.NewPaymentMetrics() })
	return sharedMetrics
}

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.PaymentMetrics
)

func testAccountAddress(t *testing.T, fill byte) string {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(bytes.Repeat([]byte{fill}, 20), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func newFixture(t *testing.T, sourceMethod domain.ApprovalMethod, extraMethods ...domain.ApprovalMethod) *fixture {
	t.Helper()

	accounts := map[string]*domain.Account{
		"acc-source": {
			ID:             "acc-source",
			TenantID:       "tenant-1",
			Identifier:     "alice",
			UserName:       "alice",
			Email:          "alice@example.com",
			BitcoinAddress: testAccountAddress(t, 0x01),
			ApprovalMethod: sourceMethod,
			AuthyID:        101,
		},
		"acc-dest": {
			ID:             "acc-dest",
			TenantID:       "tenant-1",
			Identifier:     "bob",
			UserName:       "bob",
			BitcoinAddress: testAccountAddress(t, 0x02),
			ApprovalMethod: domain.ApprovalMethodImplicit,
		},
	}
	for i, method := range extraMethods {
		id := "acc-extra-" + string(rune('a'+i))
		accounts[id] = &domain.Account{
			ID:             id,
			TenantID:       "tenant-1",
			Identifier:     "approver-" + string(rune('a'+i)),
			UserName:       "approver-" + string(rune('a'+i)),
			BitcoinAddress: testAccountAddress(t, byte(0x10+i)),
			ApprovalMethod: method,
			AuthyID:        200 + i,
		}
	}

	repo := newFakeTransactionRepo()
	chain := &fakeChainClient{
		balanceSat: 1_000_000,
		utxos: []domain.UTXO{
			{TxID: strings.Repeat("a", 64), Vout: 0, ValueSat: 500_000, Height: 90},
			{TxID: strings.Repeat("b", 64), Vout: 1, ValueSat: 500_000, Height: 95},
		},
		height:  100,
		feeRate: 10,
	}
	push := &fakePush{unregistered: make(map[int]bool)}
	pub := &fakePublisher{}

	builder := bitcoin.NewTransactionBuilder(&chaincfg.TestNet3Params, bitcoin.NewUtxoSelector(1), 200)

	uc := NewDefaultPaymentUsecase(
		repo,
		&fakeAccountRepo{accounts: accounts},
		&fakeTenantRepo{tenant: &domain.Tenant{ID: "tenant-1", Code: "acme"}},
		&fakeIdempotencyRepo{},
		chain,
		fakeSigner{},
		push,
		pub,
		&fakeSubscriber{ch: make(chan domain.Message)},
		builder,
		testMetrics(),
		zap.NewNop(),
	)

	return &fixture{uc: uc, repo: repo, chain: chain, push: push, pub: pub}
}

func createInput(approvers ...string) *CreatePaymentInput {
	return &CreatePaymentInput{
		TenantCode:          "acme",
		IdempotencyKey:      "key-1",
		SourceIdentifier:    "alice",
		DestIdentifier:      "bob",
		Amount:              decimal.NewFromInt(40_000),
		Currency:            domain.CurrencySatoshi,
		AdditionalApprovers: approvers,
		Memo:                "invoice 42",
		RawPayload:          []byte(`{"amount":"40000"}`),
	}
}

func TestCreatePaymentImplicitApproverSubmitsOnce(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)
	require.Equal(t, domain.RequestReadyToSubmit, out.Status)
	require.Len(t, out.Approvals, 1)
	require.Equal(t, domain.ApprovalApproved, out.Approvals[0].Status)
	require.Equal(t, 1, f.pub.count())

	event := domain.ApprovalEvent{
		TenantID:      "tenant-1",
		TransactionID: out.TransactionID,
		ChainType:     domain.ChainTypeBitcoin,
	}

	// At-least-once delivery: the same event arrives twice, the transaction
	// is broadcast once.
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))
	require.Equal(t, 1, f.chain.broadcastCount())

	response, err := f.repo.GetResponse(out.TransactionID)
	require.NoError(t, err)
	require.True(t, response.Resolved())
	require.NotNil(t, response.Success)
	require.True(t, *response.Success)
	require.NotEmpty(t, response.TransactionHash)
	require.NotEmpty(t, response.SignedTransaction)
}

func TestCreatePaymentDuplicateIdempotencyKey(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	ctx := context.Background()

	_, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	_, err = f.uc.CreatePayment(ctx, createInput())
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Len(t, f.repo.requests, 1)
}

func TestCreatePaymentInsufficientBalance(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	f.chain.balanceSat = 10_000

	_, err := f.uc.CreatePayment(context.Background(), createInput())
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Empty(t, f.repo.requests)
}

func TestCreatePaymentCollectsAllValidationProblems(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush, domain.ApprovalMethodAuthyPush)
	f.push.unregistered[101] = true

	_, err := f.uc.CreatePayment(context.Background(), createInput("approver-a", "nobody"))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Messages, 2)
	require.Contains(t, verr.Messages[0], "nobody")
	require.Contains(t, verr.Messages[1], "alice")
	require.Empty(t, f.repo.requests)
	require.Empty(t, f.push.sent)
}

func TestRecordApprovalUnknownCorrelationIsNoOp(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)
	published := f.pub.count()

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, "bogus-correlation", domain.ApprovalApproved))
	require.Equal(t, published, f.pub.count())

	request, err := f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalPending, request.Approvers[0].Status)
}

func TestRecordApprovalIsMonotonic(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	request, err := f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	correlationID := request.Approvers[0].ApprovalRequestID
	require.NotEmpty(t, correlationID)

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, correlationID, domain.ApprovalDenied))
	// A late APPROVED for the same correlation id must not overwrite DENIED.
	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, correlationID, domain.ApprovalApproved))

	request, err = f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalDenied, request.Approvers[0].Status)
}

func TestQuorumRequiresEveryApprover(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush, domain.ApprovalMethodAuthyPush)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput("approver-a"))
	require.NoError(t, err)
	require.Len(t, out.Approvals, 2)

	request, err := f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	event := domain.ApprovalEvent{TenantID: "tenant-1", TransactionID: out.TransactionID, ChainType: domain.ChainTypeBitcoin}

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, request.Approvers[0].ApprovalRequestID, domain.ApprovalApproved))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))
	require.Equal(t, 0, f.chain.broadcastCount())

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, request.Approvers[1].ApprovalRequestID, domain.ApprovalApproved))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))
	require.Equal(t, 1, f.chain.broadcastCount())
}

func TestDenialPermanentlyBlocksSubmission(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush, domain.ApprovalMethodAuthyPush)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput("approver-a"))
	require.NoError(t, err)

	request, err := f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	event := domain.ApprovalEvent{TenantID: "tenant-1", TransactionID: out.TransactionID, ChainType: domain.ChainTypeBitcoin}

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, request.Approvers[0].ApprovalRequestID, domain.ApprovalApproved))
	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, request.Approvers[1].ApprovalRequestID, domain.ApprovalDenied))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))

	require.Equal(t, 0, f.chain.broadcastCount())

	response, err := f.repo.GetResponse(out.TransactionID)
	require.NoError(t, err)
	require.True(t, response.Resolved())
	require.NotNil(t, response.Success)
	require.False(t, *response.Success)
	require.Contains(t, response.Result, "DENIED")

	status, err := f.uc.GetPaymentStatus(ctx, out.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestRejected, status.Status)
}

func TestTimedOutApproverRejects(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodAuthyPush)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	request, err := f.repo.GetRequest(out.TransactionID)
	require.NoError(t, err)
	event := domain.ApprovalEvent{TenantID: "tenant-1", TransactionID: out.TransactionID, ChainType: domain.ChainTypeBitcoin}

	require.NoError(t, f.uc.RecordApproval(ctx, out.TransactionID, request.Approvers[0].ApprovalRequestID, domain.ApprovalTimedOut))
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))

	require.Equal(t, 0, f.chain.broadcastCount())
	response, err := f.repo.GetResponse(out.TransactionID)
	require.NoError(t, err)
	require.True(t, response.Resolved())
	require.Contains(t, response.Result, "TIMED_OUT")
}

func TestGetPaymentStatusEnrichesBroadcastTransactions(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	event := domain.ApprovalEvent{TenantID: "tenant-1", TransactionID: out.TransactionID, ChainType: domain.ChainTypeBitcoin}
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))

	f.chain.chainTx = &domain.ChainTransaction{
		Hash:          strings.Repeat("f", 64),
		Confirmations: 3,
		FeeSat:        2_260,
		BlockHeight:   101,
	}

	status, err := f.uc.GetPaymentStatus(ctx, out.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestSubmitted, status.Status)
	require.NotNil(t, status.Chain)
	require.Equal(t, int64(3), status.Chain.Confirmations)
	require.Equal(t, int64(101), status.Chain.BlockHeight)
}

func TestGetPaymentStatusFailedSubmissionIsTerminal(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	ctx := context.Background()

	out, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	f.chain.broadcastErr = &domain.ChainServiceError{Op: "broadcast", Err: context.DeadlineExceeded}

	event := domain.ApprovalEvent{TenantID: "tenant-1", TransactionID: out.TransactionID, ChainType: domain.ChainTypeBitcoin}
	require.NoError(t, f.uc.ProcessApprovalEvent(ctx, event))

	// The response is resolved as a failure; the request must not report
	// READY_TO_SUBMIT since it will never be picked up again.
	status, err := f.uc.GetPaymentStatus(ctx, out.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestSubmitted, status.Status)
	require.NotNil(t, status.Response)
	require.NotNil(t, status.Response.Success)
	require.False(t, *status.Response.Success)
}

func TestApprovalListenerProcessesEvents(t *testing.T) {
	f := newFixture(t, domain.ApprovalMethodImplicit)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := f.uc.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	sub := f.uc.Subscriber.(*fakeSubscriber)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.uc.StartApprovalListener(ctx)
	}()

	// Replay the event the creation published.
	require.Equal(t, 1, f.pub.count())
	sub.ch <- f.pub.messages[0]
	close(sub.ch)
	<-done

	require.Equal(t, 1, f.chain.broadcastCount())
}
