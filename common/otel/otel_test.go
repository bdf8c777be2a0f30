package otel_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/common/otel"
	"prodplex.app/relay/core/config"
)

var _ = Describe("ParseHeaders", func() {
	It("splits comma separated pairs", func() {
		Expect(otel.ParseHeaders("Authorization=Basic abc==, x-tenant = prodplex")).To(Equal(map[string]string{
			"Authorization": "Basic abc==",
			"x-tenant":      "prodplex",
		}))
	})

	It("skips malformed pairs", func() {
		Expect(otel.ParseHeaders("novalue,=orphan,k=v")).To(Equal(map[string]string{"k": "v"}))
	})

	It("returns an empty map for empty input", func() {
		Expect(otel.ParseHeaders("")).To(BeEmpty())
	})
})

var _ = Describe("Setup", func() {
	It("is a no-op without an endpoint", func() {
		tel, err := otel.Setup(context.Background(), config.OTelConfig{ServiceName: "prodplex-relay"})
		Expect(err).NotTo(HaveOccurred())
		Expect(tel).To(BeNil())
		Expect(tel.Shutdown(context.Background())).To(Succeed())
	})
})
