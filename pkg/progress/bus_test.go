package progress_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/progress"
)

func TestProgress(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Progress Bus Suite")
}

func event(jobID string, percent int, status domain.Status) domain.ProgressEvent {
	return domain.ProgressEvent{
		JobID:     jobID,
		Step:      "step",
		Percent:   percent,
		Status:    status,
		Timestamp: time.Now(),
	}
}

var _ = Describe("Bus", func() {
	var bus *progress.Bus

	BeforeEach(func() {
		bus = progress.NewBus(4)
	})

	It("delivers published events to a subscriber in order", func() {
		handle := bus.Subscribe("job-1")
		defer bus.Unsubscribe(handle)

		bus.Publish(event("job-1", 10, domain.StatusProcessing))
		bus.Publish(event("job-1", 20, domain.StatusProcessing))

		first := <-handle.Events()
		Expect(first.Percent).To(Equal(10))
		second := <-handle.Events()
		Expect(second.Percent).To(Equal(20))
	})

	It("immediately delivers the latest event to a late subscriber", func() {
		bus.Publish(event("job-2", 50, domain.StatusProcessing))

		handle := bus.Subscribe("job-2")
		defer bus.Unsubscribe(handle)

		received := <-handle.Events()
		Expect(received.Percent).To(Equal(50))
	})

	It("closes the subscriber channel on a terminal event", func() {
		handle := bus.Subscribe("job-3")
		bus.Publish(event("job-3", 100, domain.StatusPassed))

		received, ok := <-handle.Events()
		Expect(ok).To(BeTrue())
		Expect(received.Percent).To(Equal(100))

		_, ok = <-handle.Events()
		Expect(ok).To(BeFalse())
	})

	It("closes the subscriber channel on a percent=0 failed event", func() {
		handle := bus.Subscribe("job-4")
		bus.Publish(event("job-4", 0, domain.StatusFailed))

		<-handle.Events()
		_, ok := <-handle.Events()
		Expect(ok).To(BeFalse())
	})

	It("supports one-shot polling via Latest", func() {
		_, ok := bus.Latest("job-5")
		Expect(ok).To(BeFalse())

		bus.Publish(event("job-5", 30, domain.StatusProcessing))

		latest, ok := bus.Latest("job-5")
		Expect(ok).To(BeTrue())
		Expect(latest.Percent).To(Equal(30))
	})

	It("does not block when a subscriber's buffer overflows", func() {
		handle := bus.Subscribe("job-6")
		defer bus.Unsubscribe(handle)

		for i := 0; i < 100; i++ {
			bus.Publish(event("job-6", i%100, domain.StatusProcessing))
		}
		// publishing must not deadlock even though nothing drains the channel
	})

	It("delivers to multiple independent subscribers", func() {
		h1 := bus.Subscribe("job-7")
		h2 := bus.Subscribe("job-7")
		defer bus.Unsubscribe(h1)
		defer bus.Unsubscribe(h2)

		bus.Publish(event("job-7", 40, domain.StatusProcessing))

		e1 := <-h1.Events()
		e2 := <-h2.Events()
		Expect(e1.Percent).To(Equal(40))
		Expect(e2.Percent).To(Equal(40))
	})
})
