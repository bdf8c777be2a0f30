package id_test

import (
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/common/id"
)

var _ = Describe("snowflake ids", func() {
	BeforeEach(func() {
		Expect(id.Init(id.NodeCLI)).To(Succeed())
	})

	It("generates increasing ids", func() {
		a := id.New()
		b := id.New()
		Expect(b).To(BeNumerically(">", a))
	})

	It("recovers the mint time", func() {
		minted := id.Time(id.New())
		Expect(minted).To(BeTemporally("~", time.Now(), 5*time.Second))
	})

	It("parses the decimal form", func() {
		v := id.New()
		parsed, err := id.Parse(strconv.FormatInt(v, 10))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(v))
	})

	DescribeTable("rejects bad input",
		func(s string) {
			_, err := id.Parse(s)
			Expect(err).To(HaveOccurred())
		},
		Entry("word", "abc"),
		Entry("zero", "0"),
		Entry("negative", "-5"),
		Entry("empty", ""),
	)
})
