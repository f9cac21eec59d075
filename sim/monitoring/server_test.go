package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/inference-sim/servsim/sim"
	"github.com/inference-sim/servsim/sim/trace"
)

var sampleRecords = []trace.ActivityRecord{
	{Time: 2, EntityID: 0, Activity: "Seated", Server: "Waitstaff A", Kind: trace.KindActivity},
	{Time: 3, EntityID: 1, Activity: "Seated", Server: "Waitstaff A", Kind: trace.KindActivity},
	{Time: 4, EntityID: 2, Activity: "Balked", Server: "Waitstaff A", Kind: trace.KindBalk},
	{Time: 6, EntityID: 0, Activity: "Bill Paid", Server: "Waitstaff A", Kind: trace.KindActivity},
	{Time: 9, EntityID: 1, Activity: "Bill Paid", Server: "Waitstaff A", Kind: trace.KindActivity},
}

var _ = Describe("Server", func() {
	var (
		mockCtrl *gomock.Controller
		run      *MockRunView
		server   *Server
	)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		run = NewMockRunView(mockCtrl)
		server = NewServer()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should answer 503 before a run is registered", func() {
		for _, path := range []string{"/api/run", "/api/trace", "/api/flow", "/api/summary", "/api/pools"} {
			Expect(get(path).Code).To(Equal(http.StatusServiceUnavailable), path)
		}
	})

	Context("with a registered run", func() {
		BeforeEach(func() {
			server.RegisterRun(run)
		})

		It("should describe the run", func() {
			metrics := sim.NewMetrics()
			metrics.Arrived = 3
			metrics.Completed = 2
			metrics.Balked = 1
			metrics.GrantedCount = 2
			metrics.TotalWait = 3
			metrics.MaxWait = 3

			run.EXPECT().RunID().Return("run-1")
			run.EXPECT().State().Return(sim.RunDrained)
			run.EXPECT().Clock().Return(int64(9))
			run.EXPECT().Horizon().Return(int64(100))
			run.EXPECT().Metrics().Return(metrics)

			rec := get("/api/run")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
			var body runResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.RunID).To(Equal("run-1"))
			Expect(body.State).To(Equal("drained"))
			Expect(body.Clock).To(Equal(int64(9)))
			Expect(body.Horizon).To(Equal(int64(100)))
			Expect(body.Completed).To(Equal(2))
			Expect(body.Balked).To(Equal(1))
			Expect(body.MeanWait).To(BeNumerically("~", 1.5))
		})

		It("should return the whole trace", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/trace")

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body []trace.ActivityRecord
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(Equal(sampleRecords))
		})

		It("should filter the trace by kind", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/trace?kind=balk")

			var body []trace.ActivityRecord
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveLen(1))
			Expect(body[0].EntityID).To(Equal(2))
		})

		It("should return an empty list when nothing matches", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/trace?server=Barista%20A")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("[]\n"))
		})

		It("should return the records of one entity", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/trace/1")

			var body []trace.ActivityRecord
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveLen(2))
			for _, r := range body {
				Expect(r.EntityID).To(Equal(1))
			}
		})

		It("should reject a non-numeric entity", func() {
			rec := get("/api/trace/abc")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer 404 for an unknown entity", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/trace/42")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should return the process flow", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/flow")

			var body trace.FlowGraph
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Nodes).To(Equal([]string{"Seated", "Bill Paid"}))
			Expect(body.Edges).To(Equal([]trace.Edge{{From: "Seated", To: "Bill Paid"}}))
		})

		It("should return the summary", func() {
			run.EXPECT().Records().Return(sampleRecords)

			rec := get("/api/summary")

			var body trace.Summary
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.TotalRecords).To(Equal(5))
			Expect(body.KindCounts[trace.KindBalk]).To(Equal(1))
			Expect(body.Orders).To(HaveLen(3))
		})

		It("should return the pools", func() {
			pools := []sim.PoolStatus{{Name: "Waitstaff A", Capacity: 1}}
			run.EXPECT().PoolStatuses().Return(pools)

			rec := get("/api/pools")

			var body []sim.PoolStatus
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveLen(1))
			Expect(body[0].Name).To(Equal("Waitstaff A"))
			Expect(body[0].Capacity).To(Equal(1))
		})

		It("should reject other methods", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	It("should serve a real simulation over a listener", func() {
		cfg := sim.Config{
			NumEntities: 3,
			Horizon:     100,
			Resources:   map[string]int{"Waitstaff A": 1},
			Activities: []sim.Activity{
				{Name: "Seated", Duration: sim.FixedDuration(2)},
				{Name: "Bill Paid", Duration: sim.FixedDuration(1)},
			},
		}
		s, err := sim.NewSimulator(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run()).To(Succeed())
		server.RegisterRun(s)

		addr, err := server.Start()
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			Expect(server.Shutdown(context.Background())).To(Succeed())
		}()

		port := addr.(*net.TCPAddr).Port
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/trace/2", port))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var body []trace.ActivityRecord
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveLen(2))
		Expect(body[1].Time).To(Equal(int64(9)))
	})

	It("should replace low port numbers with a random one", func() {
		Expect(server.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(server.WithPortNumber(18080).portNumber).To(Equal(18080))
	})
})
