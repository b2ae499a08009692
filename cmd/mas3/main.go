// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mas3 is a thin command line front end for the client library: presigned
// URL generation plus basic bucket and object operations.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HuseynMashadiyev/minio-async/s3"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MAS3")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "mas3",
		Short:         "mas3 talks to S3 compatible object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			if v.GetBool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("endpoint", "", "object storage host[:port]")
	flags.String("accesskey", "", "access key, empty for anonymous access")
	flags.String("secretkey", "", "secret key")
	flags.String("token", "", "session token for temporary credentials")
	flags.String("region", "", "signing region, resolved per bucket when empty")
	flags.Bool("secure", true, "use TLS")
	flags.Bool("virtual-style", false, "bucket-in-hostname URLs instead of path style")
	flags.Int("pool-size", 16, "maximum concurrent connections")
	flags.Duration("connect-timeout", 30*time.Second, "dial timeout")
	flags.Duration("read-timeout", 60*time.Second, "response header timeout")
	flags.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(
		newPresignCommand(v),
		newListCommand(v),
		newStatCommand(v),
		newGetCommand(v),
		newPutCommand(v),
		newRemoveCommand(v),
		newMakeBucketCommand(v),
		newRemoveBucketCommand(v),
	)
	return root
}

func newClient(v *viper.Viper) (*s3.Client, error) {
	return s3.New(s3.ParseOption(v))
}

// signalContext cancels when the process receives SIGINT or SIGTERM so
// in-flight transfers stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newPresignCommand(v *viper.Viper) *cobra.Command {
	var method string
	var expires time.Duration
	var queryParams []string

	cmd := &cobra.Command{
		Use:   "presign BUCKET OBJECT",
		Short: "Generate a presigned URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			extraQuery := url.Values{}
			for _, p := range queryParams {
				key, value, found := strings.Cut(p, "=")
				if !found {
					return fmt.Errorf("malformed query parameter %q, want key=value", p)
				}
				extraQuery.Add(key, value)
			}

			ctx, cancel := signalContext()
			defer cancel()

			presigned, err := client.GetPresignedURL(ctx, method, args[0], args[1], expires, extraQuery)
			if err != nil {
				return err
			}
			fmt.Println(presigned.URL)
			log.Debugf("expires at %s", presigned.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method embedded in the URL")
	cmd.Flags().DurationVar(&expires, "expires", 7*24*time.Hour, "validity window, 1s to 168h")
	cmd.Flags().StringArrayVar(&queryParams, "query", nil, "extra signed query parameter, key=value, repeatable")
	return cmd
}

func newListCommand(v *viper.Viper) *cobra.Command {
	var prefix string
	var maxKeys int

	cmd := &cobra.Command{
		Use:   "ls [BUCKET]",
		Short: "List buckets, or objects in a bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if len(args) == 0 {
				buckets, err := client.ListBuckets(ctx)
				if err != nil {
					return err
				}
				for _, b := range buckets {
					fmt.Printf("%s  %s\n", b.CreationDate.Format(time.RFC3339), b.Name)
				}
				return nil
			}

			objects, err := client.ListObjects(ctx, args[0], prefix, maxKeys)
			if err != nil {
				return err
			}
			for _, o := range objects {
				fmt.Printf("%s  %12d  %s\n", o.LastModified.Format(time.RFC3339), o.Size, o.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "list only keys starting with prefix")
	cmd.Flags().IntVar(&maxKeys, "max-keys", 0, "stop after this many keys, 0 for all")
	return cmd
}

func newStatCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stat BUCKET OBJECT",
		Short: "Show object metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()

			info, err := client.StatObject(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Name         : %s/%s\n", info.Bucket, info.Key)
			fmt.Printf("Size         : %d\n", info.Size)
			fmt.Printf("ETag         : %s\n", info.ETag)
			fmt.Printf("Content-Type : %s\n", info.ContentType)
			if !info.LastModified.IsZero() {
				fmt.Printf("Modified     : %s\n", info.LastModified.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newGetCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "get BUCKET OBJECT [FILE]",
		Short: "Download an object, to stdout when FILE is omitted",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()

			obj, err := client.GetObject(ctx, args[0], args[1], s3.GetObjectOptions{})
			if err != nil {
				return err
			}
			defer obj.Body.Close()

			var out io.Writer = os.Stdout
			if len(args) == 3 {
				f, err := os.Create(args[2])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			n, err := io.Copy(out, obj.Body)
			if err != nil {
				return err
			}
			log.Debugf("downloaded %d bytes from %s/%s", n, args[0], args[1])
			return nil
		},
	}
}

func newPutCommand(v *viper.Viper) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "put BUCKET OBJECT FILE",
		Short: "Upload a file as an object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			stat, err := f.Stat()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			info, err := client.PutObject(ctx, args[0], args[1], f, stat.Size(),
				s3.PutObjectOptions{ContentType: contentType})
			if err != nil {
				return err
			}
			fmt.Printf("%s/%s  etag=%s  size=%d\n", info.Bucket, info.Key, info.ETag, info.Size)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type, application/octet-stream when empty")
	return cmd
}

func newRemoveCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "rm BUCKET OBJECT",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()
			return client.RemoveObject(ctx, args[0], args[1])
		},
	}
}

func newMakeBucketCommand(v *viper.Viper) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "mb BUCKET",
		Short: "Create a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()
			return client.MakeBucket(ctx, args[0], region)
		},
	}
	cmd.Flags().StringVar(&region, "bucket-region", "", "region for the new bucket")
	return cmd
}

func newRemoveBucketCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "rb BUCKET",
		Short: "Delete an empty bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(v)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()
			return client.RemoveBucket(ctx, args[0])
		},
	}
}
